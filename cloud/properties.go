/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloud

import (
	"strconv"
	"strings"
)

/**
Cloud properties are below default priority, so explicit properties of the application win.
*/
const PropertyPriority = 50

/**
Exposes application and services as placeholder properties:

	cloud.application.name
	cloud.services.<name>.label
	cloud.services.<name>.connection.host
	cloud.services.<kind>.connection.host  (only if single service of the kind is bound)
*/

type PropertyResolver struct {
	props map[string]string
}

func NewPropertyResolver(c *Cloud) *PropertyResolver {
	t := &PropertyResolver{props: make(map[string]string)}

	if app, ok := c.Application(); ok {
		t.set("cloud.application.name", app.Name)
		t.set("cloud.application.id", app.ID)
		t.set("cloud.application.version", app.Version)
		t.set("cloud.application.instance-id", app.InstanceID)
		t.set("cloud.application.instance-index", strconv.Itoa(app.InstanceIndex))
		t.set("cloud.application.space-name", app.SpaceName)
		t.set("cloud.application.space-id", app.SpaceID)
		t.set("cloud.application.uris", strings.Join(app.URIs, ";"))
		if app.Port != 0 {
			t.set("cloud.application.port", strconv.Itoa(app.Port))
		}
	}

	for _, b := range c.Bindings() {
		prefix := "cloud.services." + b.Name
		t.set(prefix+".label", b.Label)
		t.set(prefix+".plan", b.Plan)
		t.set(prefix+".tags", strings.Join(b.Tags, ";"))
	}

	counts := make(map[ServiceKind]int)
	for _, info := range c.ServiceInfos() {
		counts[info.Kind()]++
	}

	for _, info := range c.ServiceInfos() {
		t.set("cloud.services."+info.ID()+".type", string(info.Kind()))
		t.setConnection("cloud.services."+info.ID()+".connection.", info)
		if counts[info.Kind()] == 1 {
			t.setConnection("cloud.services."+string(info.Kind())+".connection.", info)
		}
	}

	return t
}

func (t *PropertyResolver) setConnection(prefix string, info ServiceInfo) {
	t.set(prefix+"host", info.Host())
	t.set(prefix+"port", strconv.Itoa(info.Port()))
	t.set(prefix+"username", info.Username())
	t.set(prefix+"password", info.Password())
	t.set(prefix+"name", info.Path())
	t.set(prefix+"uri", info.URI())
}

func (t *PropertyResolver) set(key, value string) {
	if value != "" {
		t.props[key] = value
	}
}

func (t *PropertyResolver) Priority() int {
	return PropertyPriority
}

func (t *PropertyResolver) GetProperty(key string) (string, bool) {
	value, ok := t.props[key]
	return value, ok
}

/**
Returns copy of all cloud properties
*/
func (t *PropertyResolver) Properties() map[string]string {
	m := make(map[string]string, len(t.props))
	for k, v := range t.props {
		m[k] = v
	}
	return m
}
