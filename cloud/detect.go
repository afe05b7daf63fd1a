/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloud

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"net/url"
	"strings"
)

/**
Known credential keys of the service brokers
*/

type credentials struct {
	URI      string `mapstructure:"uri"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Hostname string `mapstructure:"hostname"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Database string `mapstructure:"database"`
	DB       string `mapstructure:"db"`
	Vhost    string `mapstructure:"vhost"`
}

func decodeCredentials(b *ServiceBinding) (*credentials, error) {
	c := new(credentials)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(b.Credentials); err != nil {
		return nil, errors.Wrapf(err, "credentials of service '%s'", b.Name)
	}
	return c, nil
}

type detector struct {
	kind        ServiceKind
	vendor      string
	label       string
	tags        []string
	schemes     []string
	defaultPort int
}

var detectors = []detector{
	{kind: Relational, vendor: MySQL, label: "mysql", tags: []string{"mysql"}, schemes: []string{"mysql"}, defaultPort: 3306},
	{kind: Relational, vendor: PostgreSQL, label: "postgresql", tags: []string{"postgresql", "postgres"}, schemes: []string{"postgres", "postgresql"}, defaultPort: 5432},
	{kind: Mongo, label: "mongodb", tags: []string{"mongodb"}, schemes: []string{"mongodb"}, defaultPort: 27017},
	{kind: Redis, label: "redis", tags: []string{"redis"}, schemes: []string{"redis", "rediss"}, defaultPort: 6379},
	{kind: Rabbit, label: "rabbitmq", tags: []string{"rabbitmq", "amqp"}, schemes: []string{"amqp", "amqps"}, defaultPort: 5672},
}

/**
Finds detector by label prefix at first, then by tags and at last by URI scheme of credentials
*/
func detect(b *ServiceBinding) (*detector, bool) {
	label := strings.ToLower(b.Label)
	for i := range detectors {
		if strings.HasPrefix(label, detectors[i].label) {
			return &detectors[i], true
		}
	}
	for i := range detectors {
		for _, tag := range b.Tags {
			if containsFold(detectors[i].tags, tag) {
				return &detectors[i], true
			}
		}
	}
	if raw := rawURI(b.Credentials); raw != "" {
		if u, err := url.Parse(raw); err == nil {
			for i := range detectors {
				if containsFold(detectors[i].schemes, u.Scheme) {
					return &detectors[i], true
				}
			}
		}
	}
	return nil, false
}

/**
Creates service info for the binding, returns false for unknown services
*/
func createServiceInfo(b *ServiceBinding) (ServiceInfo, bool, error) {
	d, ok := detect(b)
	if !ok {
		return nil, false, nil
	}
	c, err := decodeCredentials(b)
	if err != nil {
		return nil, false, err
	}
	base := uriInfo{
		id:    b.Name,
		kind:  d.kind,
		label: b.Label,
		plan:  b.Plan,
	}
	if err := base.resolve(d.schemes[0], d.defaultPort, c); err != nil {
		return nil, false, err
	}
	switch d.kind {
	case Relational:
		return &RelationalServiceInfo{uriInfo: base, Vendor: d.vendor}, true, nil
	case Mongo:
		return &MongoServiceInfo{uriInfo: base}, true, nil
	case Redis:
		return &RedisServiceInfo{uriInfo: base}, true, nil
	case Rabbit:
		return &RabbitServiceInfo{uriInfo: base}, true, nil
	default:
		return nil, false, errors.Errorf("unknown service kind '%s'", d.kind)
	}
}

/**
Returns uri or url credential when it is a string, credentials are not decoded before the service is detected
*/
func rawURI(credentials map[string]interface{}) string {
	for _, key := range []string{"uri", "url"} {
		if s, ok := credentials[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func containsFold(list []string, s string) bool {
	for _, el := range list {
		if strings.EqualFold(el, s) {
			return true
		}
	}
	return false
}

func firstNonEmpty(list ...string) string {
	for _, s := range list {
		if s != "" {
			return s
		}
	}
	return ""
}
