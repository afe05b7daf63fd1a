/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"database/sql"
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"reflect"
)

var GormClass = reflect.TypeOf((*gorm.DB)(nil))

/**
Replaces *gorm.DB bean by the handle opened with the dialector of the bound vendor.
Naming strategy, logger and transaction flags of the displaced handle are kept.
The pool of the displaced handle is closed unless a *sql.DB bean of the context holds it.
*/

type GormConfigurer struct {
	sharedPools map[*sql.DB]bool
}

func (t *GormConfigurer) Capability() string {
	return "orm"
}

func (t *GormConfigurer) Kind() cloud.ServiceKind {
	return cloud.Relational
}

func (t *GormConfigurer) Slots(registry cloudglue.BeanRegistry) []cloudglue.Bean {
	t.sharedPools = make(map[*sql.DB]bool)
	for _, b := range registry.BeansOfType(DataSourceClass) {
		if pool, ok := b.Object().(*sql.DB); ok && pool != nil {
			t.sharedPools[pool] = true
		}
	}
	return registry.BeansOfType(GormClass)
}

func (t *GormConfigurer) Create(info cloud.ServiceInfo, displaced cloudglue.Bean) (interface{}, error) {
	rel, err := relationalInfo(info)
	if err != nil {
		return nil, err
	}
	conn, err := OpenDataSource(rel)
	if err != nil {
		return nil, err
	}

	config := &gorm.Config{
		DisableAutomaticPing: true,
	}

	prev, _ := displacedObject(displaced).(*gorm.DB)
	if prev != nil && prev.Config != nil {
		config.SkipDefaultTransaction = prev.SkipDefaultTransaction
		config.NamingStrategy = prev.NamingStrategy
		config.FullSaveAssociations = prev.FullSaveAssociations
		config.Logger = prev.Logger
		config.NowFunc = prev.NowFunc
		config.PrepareStmt = prev.PrepareStmt
		config.DisableForeignKeyConstraintWhenMigrating = prev.DisableForeignKeyConstraintWhenMigrating
		config.CreateBatchSize = prev.CreateBatchSize
	}

	db, err := gorm.Open(Dialector(rel, conn), config)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "open orm of service '%s'", rel.ID())
	}

	if prev != nil {
		if pool, err := prev.DB(); err == nil && !t.sharedPools[pool] {
			pool.Close()
		}
	}

	return db, nil
}

/**
Returns gorm dialector of the vendor over the existing pool
*/
func Dialector(info *cloud.RelationalServiceInfo, conn *sql.DB) gorm.Dialector {
	if info.Vendor == cloud.PostgreSQL {
		return gormpostgres.New(gormpostgres.Config{
			Conn: conn,
		})
	}
	return gormmysql.New(gormmysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	})
}
