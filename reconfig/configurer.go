/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/**
Configurer detects one bean type and one service kind, and creates the replacement client from service credentials.
*/

type Configurer interface {

	/**
	Unique name of the client type that the configurer replaces
	*/
	Capability() string

	/**
	Kind of the service that the configurer connects to
	*/
	Kind() cloud.ServiceKind

	/**
	Returns candidate beans from the scanned context
	*/
	Slots(registry cloudglue.BeanRegistry) []cloudglue.Bean

	/**
	Creates replacement object, displaced bean is used to keep client tuning
	*/
	Create(info cloud.ServiceInfo, displaced cloudglue.Bean) (interface{}, error)
}

/**
Returns configurers for all supported client types
*/
func DefaultConfigurers() []Configurer {
	return []Configurer{
		&DataSourceConfigurer{},
		&GormConfigurer{},
		&DialectConfigurer{},
		&MongoConfigurer{},
		&RedisConfigurer{},
		&RabbitConfigurer{},
	}
}

/**
Configurer that reports non fatal credential problems through the logger of the reconfigurer
*/
type loggerAware interface {
	setLogger(log *zap.Logger)
}

func relationalInfo(info cloud.ServiceInfo) (*cloud.RelationalServiceInfo, error) {
	rel, ok := info.(*cloud.RelationalServiceInfo)
	if !ok {
		return nil, errors.Errorf("service '%s' is not relational, kind '%s'", info.ID(), info.Kind())
	}
	return rel, nil
}

/**
Returns object of the displaced bean, nil for products of factory beans
*/
func displacedObject(displaced cloudglue.Bean) interface{} {
	if displaced == nil {
		return nil
	}
	return displaced.Object()
}
