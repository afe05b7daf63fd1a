/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import (
	"github.com/pkg/errors"
	"reflect"
)

/**
Fills nil anonymous interface fields of the bean, so the bean can declare the capability without implementing it.
Lifecycle calls on the filled field fail with the name of the missing method.
*/

type anonymousStub struct {
	class    reflect.Type
	iface    string
	elemType reflect.Type
}

func (t *anonymousStub) missing(method string) error {
	return errors.Errorf("bean '%s' does not implement %s method, but has anonymous field %s", t.class.String(), method, t.iface)
}

func (t *anonymousStub) BeanName() string { return t.class.String() }

func (t *anonymousStub) BeanOrder() int { return 0 }

func (t *anonymousStub) PostConstruct() error { return t.missing("PostConstruct") }

func (t *anonymousStub) Destroy() error { return t.missing("Destroy") }

func (t *anonymousStub) PostProcessBeanFactory(BeanRegistry) error {
	return t.missing("PostProcessBeanFactory")
}

func (t *anonymousStub) Object() (interface{}, error) { return nil, t.missing("Object") }

func (t *anonymousStub) ObjectType() reflect.Type { return t.elemType }

func (t *anonymousStub) ObjectName() string { return "" }

func (t *anonymousStub) Singleton() bool { return true }

var stubbedInterfaces = map[reflect.Type]string{
	NamedBeanClass:                "NamedBean",
	OrderedBeanClass:              "OrderedBean",
	InitializingBeanClass:         "InitializingBean",
	DisposableBeanClass:           "DisposableBean",
	FactoryBeanClass:              "FactoryBean",
	BeanFactoryPostProcessorClass: "BeanFactoryPostProcessor",
}

func stubAnonymousField(fieldValue reflect.Value, field reflect.StructField, classPtr reflect.Type) error {
	if field.Type == ContextClass {
		return errors.Errorf("exposing by anonymous field '%s' in '%v' interface cloudglue.Context is not allowed", field.Name, classPtr)
	}
	iface, ok := stubbedInterfaces[field.Type]
	if !ok {
		return nil
	}
	if fieldValue.CanSet() && fieldValue.IsNil() {
		fieldValue.Set(reflect.ValueOf(&anonymousStub{class: classPtr, iface: iface, elemType: classPtr}))
	}
	return nil
}
