/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/pkg/errors"
	"reflect"
)

const (
	DialectKey          = "gorm.dialect"
	HibernateDialectKey = "hibernate.dialect"
)

/**
Well known names of ORM property beans, only beans with one of these names or aliases are reconfigured
*/
var ORMPropertiesNames = []string{"ormProperties", "gormProperties", "jpaProperties", "hibernateProperties"}

var ORMPropertiesClass = reflect.TypeOf((*ORMProperties)(nil))

/**
Property map of the ORM layer, the dialect entries follow the bound database vendor.
*/

type ORMProperties struct {
	Name   string
	Values map[string]string
}

func (t *ORMProperties) BeanName() string {
	if t.Name != "" {
		return t.Name
	}
	return ORMPropertiesNames[0]
}

func (t *ORMProperties) Get(key string) (string, bool) {
	value, ok := t.Values[key]
	return value, ok
}

var (
	gormDialects = map[string]string{
		cloud.MySQL:      "mysql",
		cloud.PostgreSQL: "postgres",
	}
	hibernateDialects = map[string]string{
		cloud.MySQL:      "org.hibernate.dialect.MySQLDialect",
		cloud.PostgreSQL: "org.hibernate.dialect.PostgreSQLDialect",
	}
)

/**
Replaces well known ORM property bean by the copy with dialect of the bound vendor
*/

type DialectConfigurer struct {
}

func (t *DialectConfigurer) Capability() string {
	return "orm-properties"
}

func (t *DialectConfigurer) Kind() cloud.ServiceKind {
	return cloud.Relational
}

func (t *DialectConfigurer) Slots(registry cloudglue.BeanRegistry) []cloudglue.Bean {
	var list []cloudglue.Bean
	for _, b := range registry.BeansOfType(ORMPropertiesClass) {
		if isWellKnownName(b) {
			list = append(list, b)
		}
	}
	return list
}

func (t *DialectConfigurer) Create(info cloud.ServiceInfo, displaced cloudglue.Bean) (interface{}, error) {
	rel, err := relationalInfo(info)
	if err != nil {
		return nil, err
	}
	dialect, ok := gormDialects[rel.Vendor]
	if !ok {
		return nil, errors.Errorf("no dialect for vendor '%s' of service '%s'", rel.Vendor, rel.ID())
	}
	replacement := &ORMProperties{
		Values: make(map[string]string),
	}
	if prev, ok := displacedObject(displaced).(*ORMProperties); ok && prev != nil {
		replacement.Name = prev.Name
		for k, v := range prev.Values {
			replacement.Values[k] = v
		}
	}
	replacement.Values[DialectKey] = dialect
	if _, ok := replacement.Values[HibernateDialectKey]; ok {
		replacement.Values[HibernateDialectKey] = hibernateDialects[rel.Vendor]
	}
	return replacement, nil
}

func isWellKnownName(b cloudglue.Bean) bool {
	names := append([]string{b.Name()}, b.Aliases()...)
	for _, name := range names {
		for _, known := range ORMPropertiesNames {
			if name == known {
				return true
			}
		}
	}
	return false
}
