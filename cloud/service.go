/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloud

import (
	"encoding/json"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type ServiceKind string

const (
	Relational ServiceKind = "relational"
	Mongo      ServiceKind = "mongodb"
	Redis      ServiceKind = "redis"
	Rabbit     ServiceKind = "rabbitmq"
)

const (
	MySQL      = "mysql"
	PostgreSQL = "postgresql"
)

/**
Raw service binding entry of VCAP_SERVICES
*/

type ServiceBinding struct {
	Name        string                 `json:"name"`
	Label       string                 `json:"label"`
	Plan        string                 `json:"plan"`
	Tags        []string               `json:"tags"`
	Credentials map[string]interface{} `json:"credentials"`
}

func (t *ServiceBinding) String() string {
	return fmt.Sprintf("ServiceBinding{name=%s,label=%s,plan=%s}", t.Name, t.Label, t.Plan)
}

func parseServices(content string) ([]*ServiceBinding, error) {
	holder := make(map[string][]*ServiceBinding)
	if err := json.Unmarshal([]byte(content), &holder); err != nil {
		return nil, errors.Wrapf(err, "malformed %s", ServicesEnv)
	}
	labels := make([]string, 0, len(holder))
	for label := range holder {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	var list []*ServiceBinding
	for _, label := range labels {
		for _, b := range holder[label] {
			if b == nil {
				continue
			}
			if b.Label == "" {
				b.Label = label
			}
			list = append(list, b)
		}
	}
	return list, nil
}

/**
Typed view of the bound service, the connection parameters are resolved from credentials
*/

type ServiceInfo interface {

	/**
	Returns name of the service binding
	*/
	ID() string

	Kind() ServiceKind

	Label() string

	Plan() string

	Host() string

	Port() int

	Username() string

	Password() string

	/**
	Returns path component of the connection, database name or virtual host
	*/
	Path() string

	/**
	Returns connection URI with credentials
	*/
	URI() string
}

type uriInfo struct {
	id       string
	kind     ServiceKind
	label    string
	plan     string
	host     string
	port     int
	username string
	password string
	path     string
	scheme   string
	query    string
	uri      string
}

func (t *uriInfo) ID() string { return t.id }
func (t *uriInfo) Kind() ServiceKind { return t.kind }
func (t *uriInfo) Label() string { return t.label }
func (t *uriInfo) Plan() string { return t.plan }
func (t *uriInfo) Host() string { return t.host }
func (t *uriInfo) Port() int { return t.port }
func (t *uriInfo) Username() string { return t.username }
func (t *uriInfo) Password() string { return t.password }
func (t *uriInfo) Path() string { return t.path }
func (t *uriInfo) URI() string { return t.uri }

/**
Returns scheme of the connection URI, TLS variants like rediss or amqps are kept as is
*/
func (t *uriInfo) Scheme() string { return t.scheme }

/**
Returns host:port pair
*/
func (t *uriInfo) Addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func (t *uriInfo) String() string {
	return fmt.Sprintf("%s{id=%s,label=%s,host=%s,port=%d,path=%s}", t.kind, t.id, t.label, t.host, t.port, t.path)
}

/**
Fills connection parameters from credentials. The credential URI is kept verbatim and has precedence,
fields missing in it are taken from the discrete credentials.
*/
func (t *uriInfo) resolve(scheme string, defaultPort int, c *credentials) error {

	t.host = firstNonEmpty(c.Host, c.Hostname)
	t.port = c.Port
	t.username = firstNonEmpty(c.Username, c.User)
	t.password = c.Password
	t.path = firstNonEmpty(c.Name, c.Database, c.DB, c.Vhost)
	t.scheme = scheme

	raw := firstNonEmpty(c.URI, c.URL)
	if raw != "" {
		u, err := parseCredentialURI(raw)
		if err != nil {
			return errors.Wrapf(err, "invalid uri in credentials of service '%s'", t.id)
		}
		t.scheme = strings.ToLower(u.Scheme)
		t.query = u.RawQuery
		host, port, err := firstHost(u.Host)
		if err != nil {
			return errors.Wrapf(err, "invalid host in uri of service '%s'", t.id)
		}
		if host != "" {
			t.host = host
		}
		if port != 0 {
			t.port = port
		}
		if u.User != nil {
			t.username = u.User.Username()
			if password, ok := u.User.Password(); ok {
				t.password = password
			}
		}
		if path := strings.TrimPrefix(u.Path, "/"); path != "" {
			t.path = path
		}
	}

	if t.host == "" {
		return errors.Errorf("service '%s' with label '%s' has no host in credentials", t.id, t.label)
	}
	if t.port == 0 {
		t.port = defaultPort
	}

	if raw != "" {
		t.uri = raw
		return nil
	}

	u := &url.URL{
		Scheme: scheme,
		Host:   t.Addr(),
	}
	if t.username != "" || t.password != "" {
		u.User = url.UserPassword(t.username, t.password)
	}
	if t.path != "" {
		u.Path = "/" + t.path
	}
	t.uri = u.String()
	return nil
}

/**
Parses the credential URI, an authority with several hosts is reduced to the first host when url.Parse rejects it
*/
func parseCredentialURI(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err == nil {
		return u, nil
	}
	i := strings.Index(raw, "://")
	if i < 0 {
		return nil, err
	}
	rest := raw[i+3:]
	end := strings.IndexAny(rest, "/?")
	if end < 0 {
		end = len(rest)
	}
	authority := rest[:end]
	at := strings.LastIndex(authority, "@")
	hosts := authority[at+1:]
	comma := strings.IndexByte(hosts, ',')
	if comma < 0 {
		return nil, err
	}
	return url.Parse(raw[:i+3] + authority[:at+1] + hosts[:comma] + rest[end:])
}

/**
Returns the first host of the authority, replica sets list hosts separated by comma
*/
func firstHost(authority string) (string, int, error) {
	if authority == "" {
		return "", 0, nil
	}
	if i := strings.IndexByte(authority, ','); i >= 0 {
		authority = authority[:i]
	}
	host, port, err := net.SplitHostPort(authority)
	if err != nil {
		// no port in the authority
		return strings.Trim(authority, "[]"), 0, nil
	}
	if port == "" {
		return host, 0, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return "", 0, errors.Errorf("invalid port '%s'", port)
	}
	return host, p, nil
}

/**
Broker options of mysql URIs unknown to the driver, they would be sent to the server as session variables
*/
var ignoredMySQLOptions = []string{"reconnect"}

/**
Relational database, the vendor is mysql or postgresql
*/

type RelationalServiceInfo struct {
	uriInfo
	Vendor string
}

/**
Returns driver name registered in database/sql
*/
func (t *RelationalServiceInfo) DriverName() string {
	if t.Vendor == PostgreSQL {
		return "postgres"
	}
	return "mysql"
}

/**
Returns data source name in the format of the vendor driver
*/
func (t *RelationalServiceInfo) DataSourceName() (string, error) {
	switch t.Vendor {
	case MySQL:
		cfg := mysql.NewConfig()
		cfg.User = t.username
		cfg.Passwd = t.password
		cfg.Net = "tcp"
		cfg.Addr = t.Addr()
		cfg.DBName = t.path
		if t.query == "" {
			cfg.ParseTime = true
			return cfg.FormatDSN(), nil
		}
		parsed, err := mysql.ParseDSN(cfg.FormatDSN() + "?" + t.query)
		if err != nil {
			return "", errors.Wrapf(err, "invalid options in uri of service '%s'", t.id)
		}
		values, _ := url.ParseQuery(t.query)
		if _, ok := values["parseTime"]; !ok {
			parsed.ParseTime = true
		}
		for _, key := range ignoredMySQLOptions {
			delete(parsed.Params, key)
		}
		return parsed.FormatDSN(), nil
	case PostgreSQL:
		dsn, err := pq.ParseURL(t.uri)
		if err != nil {
			return "", errors.Wrapf(err, "service '%s'", t.id)
		}
		return dsn, nil
	default:
		return "", errors.Errorf("unsupported relational vendor '%s' of service '%s'", t.Vendor, t.id)
	}
}

type MongoServiceInfo struct {
	uriInfo
}

/**
Returns database name
*/
func (t *MongoServiceInfo) Database() string {
	return t.path
}

type RedisServiceInfo struct {
	uriInfo
}

type RabbitServiceInfo struct {
	uriInfo
}

/**
Returns virtual host, empty path means default one
*/
func (t *RabbitServiceInfo) VirtualHost() string {
	if t.path == "" {
		return "/"
	}
	return t.path
}
