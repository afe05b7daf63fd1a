/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/juju/mgo/v3"
	"github.com/pkg/errors"
	"reflect"
)

var MongoDialInfoClass = reflect.TypeOf((*mgo.DialInfo)(nil))

/**
Replaces *mgo.DialInfo bean, the session factory of the application, by dial info of the bound mongodb service.
*/

type MongoConfigurer struct {
}

func (t *MongoConfigurer) Capability() string {
	return "mongo-dial-info"
}

func (t *MongoConfigurer) Kind() cloud.ServiceKind {
	return cloud.Mongo
}

func (t *MongoConfigurer) Slots(registry cloudglue.BeanRegistry) []cloudglue.Bean {
	return registry.BeansOfType(MongoDialInfoClass)
}

func (t *MongoConfigurer) Create(info cloud.ServiceInfo, displaced cloudglue.Bean) (interface{}, error) {
	if _, ok := info.(*cloud.MongoServiceInfo); !ok {
		return nil, errors.Errorf("service '%s' is not mongodb, kind '%s'", info.ID(), info.Kind())
	}
	dialInfo, err := mgo.ParseURL(info.URI())
	if err != nil {
		return nil, errors.Wrapf(err, "parse uri of service '%s'", info.ID())
	}
	if prev, ok := displacedObject(displaced).(*mgo.DialInfo); ok && prev != nil {
		if prev.Timeout > 0 {
			dialInfo.Timeout = prev.Timeout
		}
		if prev.PoolLimit > 0 {
			dialInfo.PoolLimit = prev.PoolLimit
		}
		dialInfo.FailFast = prev.FailFast
	}
	return dialInfo, nil
}
