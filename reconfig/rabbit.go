/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"reflect"
)

var AMQPURIClass = reflect.TypeOf((*amqp.URI)(nil))

/**
Replaces *amqp.URI bean, the connection factory of the application, by URI of the bound rabbitmq service.
TLS files of the displaced URI are kept.
*/

type RabbitConfigurer struct {
}

func (t *RabbitConfigurer) Capability() string {
	return "amqp-uri"
}

func (t *RabbitConfigurer) Kind() cloud.ServiceKind {
	return cloud.Rabbit
}

func (t *RabbitConfigurer) Slots(registry cloudglue.BeanRegistry) []cloudglue.Bean {
	return registry.BeansOfType(AMQPURIClass)
}

func (t *RabbitConfigurer) Create(info cloud.ServiceInfo, displaced cloudglue.Bean) (interface{}, error) {
	if _, ok := info.(*cloud.RabbitServiceInfo); !ok {
		return nil, errors.Errorf("service '%s' is not rabbitmq, kind '%s'", info.ID(), info.Kind())
	}
	uri, err := amqp.ParseURI(info.URI())
	if err != nil {
		return nil, errors.Wrapf(err, "parse uri of service '%s'", info.ID())
	}
	if prev, ok := displacedObject(displaced).(*amqp.URI); ok && prev != nil {
		uri.CertFile = prev.CertFile
		uri.KeyFile = prev.KeyFile
		uri.CACertFile = prev.CACertFile
	}
	return &uri, nil
}
