/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"database/sql"
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"reflect"
)

var DataSourceClass = reflect.TypeOf((*sql.DB)(nil))

/**
Replaces *sql.DB bean by the pool connected to the bound mysql or postgresql service.
Max open connections of the displaced pool are kept.
*/

type DataSourceConfigurer struct {
}

func (t *DataSourceConfigurer) Capability() string {
	return "data-source"
}

func (t *DataSourceConfigurer) Kind() cloud.ServiceKind {
	return cloud.Relational
}

func (t *DataSourceConfigurer) Slots(registry cloudglue.BeanRegistry) []cloudglue.Bean {
	return registry.BeansOfType(DataSourceClass)
}

func (t *DataSourceConfigurer) Create(info cloud.ServiceInfo, displaced cloudglue.Bean) (interface{}, error) {
	rel, err := relationalInfo(info)
	if err != nil {
		return nil, err
	}
	db, err := OpenDataSource(rel)
	if err != nil {
		return nil, err
	}
	if prev, ok := displacedObject(displaced).(*sql.DB); ok && prev != nil {
		if n := prev.Stats().MaxOpenConnections; n > 0 {
			db.SetMaxOpenConns(n)
		}
	}
	return db, nil
}

/**
Opens pool for the relational service, does not connect
*/
func OpenDataSource(info *cloud.RelationalServiceInfo) (*sql.DB, error) {
	dsn, err := info.DataSourceName()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(info.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open data source of service '%s'", info.ID())
	}
	return db, nil
}
