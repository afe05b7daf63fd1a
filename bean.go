/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

type beanDef struct {
	/**
	Class of the pointer to the struct or interface
	*/
	classPtr reflect.Type

	/**
	Anonymous fields expose their interfaces though the bean itself.
	This is confusing on injection, because this bean is an encapsulator, not an implementation.
	*/
	anonymousFields []reflect.Type

	/**
	Fields that are going to be injected
	*/
	fields []*injectionDef

	/**
	Properties that are going to be injected
	*/
	properties []*propInjectionDef
}

type bean struct {
	/**
	Name of the bean
	*/
	name string

	/**
	Additional names of the bean
	*/
	aliases []string

	/**
	Qualifier of the bean
	*/
	qualifier string

	ordered bool
	order   int

	/**
	Factory of the bean if exist
	*/
	beenFactory *factory

	/**
	Instance to the bean, could be empty if beenFactory exist
	*/
	obj interface{}

	/**
	Reflect instance to the pointer of the bean, could be empty if beenFactory exist
	*/
	valuePtr reflect.Value

	beanDef *beanDef

	lifecycle BeanLifecycle

	/**
	List of beans that should initialize before current bean
	*/
	dependencies []*bean

	/**
	List of factory beans that should initialize before current bean
	*/
	factoryDependencies []*factoryDependency

	ctorMu sync.Mutex
}

func (t *bean) String() string {
	if t.beenFactory != nil {
		objectName := t.beenFactory.factoryBean.ObjectName()
		if objectName != "" {
			return fmt.Sprintf("<FactoryBean %s->%s(%s)>", t.beenFactory.factoryClassPtr, t.beanDef.classPtr, objectName)
		} else {
			return fmt.Sprintf("<FactoryBean %s->%s>", t.beenFactory.factoryClassPtr, t.beanDef.classPtr)
		}
	} else if t.qualifier != "" {
		return fmt.Sprintf("<Bean %s(%s)>", t.beanDef.classPtr, t.qualifier)
	} else {
		return fmt.Sprintf("<Bean %s>", t.beanDef.classPtr)
	}
}

func (t *bean) Name() string {
	return t.name
}

func (t *bean) Aliases() []string {
	return t.aliases
}

func (t *bean) Class() reflect.Type {
	return t.beanDef.classPtr
}

func (t *bean) Implements(ifaceType reflect.Type) bool {
	return t.beanDef.implements(ifaceType)
}

func (t *bean) Object() interface{} {
	return t.obj
}

func (t *bean) FactoryBean() (Bean, bool) {
	if t.beenFactory != nil {
		return t.beenFactory.bean, true
	} else {
		return nil, false
	}
}

func (t *bean) Lifecycle() BeanLifecycle {
	return t.lifecycle
}

/**
Check if the bean is known under the name
*/
func (t *bean) hasName(name string) bool {
	if t.name == name {
		return true
	}
	for _, alias := range t.aliases {
		if alias == name {
			return true
		}
	}
	return false
}

/**
Check if bean definition can implement interface type
*/
func (t *beanDef) implements(ifaceType reflect.Type) bool {
	if isSomeoneImplements(ifaceType, t.anonymousFields) {
		return false
	}
	return t.classPtr.Implements(ifaceType)
}

/**
Check if bean definition can be injected in to the field of the type
*/
func (t *beanDef) assignable(typ reflect.Type) bool {
	if typ.Kind() == reflect.Interface {
		return t.implements(typ)
	}
	return t.classPtr == typ
}

type factory struct {
	/**
	Bean associated with Factory in context
	*/
	bean *bean

	factoryObj interface{}

	factoryClassPtr reflect.Type

	factoryBean FactoryBean

	/**
	Created bean instances by this factory
	*/
	instances []*bean
}

func (t *factory) String() string {
	return t.factoryClassPtr.String()
}

func (t *factory) ctor() (*bean, bool, error) {
	var b *bean
	var singleton bool

	if len(t.instances) == 0 {
		return nil, false, errors.Errorf("internal: element bean collection is empty for factory '%v'", t.factoryClassPtr)
	}

	if t.factoryBean.Singleton() {
		if t.instances[0].obj == nil {
			b = t.instances[0]
			singleton = true
		} else {
			return t.instances[0], false, nil
		}
	} else {
		if t.instances[0].obj == nil {
			b = t.instances[0]
		} else {
			// not a singleton, every call appends the next element
			b = &bean{
				name:        t.instances[0].name,
				beenFactory: t,
				beanDef:     t.instances[0].beanDef,
			}
			t.instances = append(t.instances, b)
		}
	}

	obj, err := t.factoryBean.Object()
	if err != nil {
		return nil, false, errors.Errorf("factory bean '%v' failed to create bean '%v', %v", t.factoryClassPtr, t.factoryBean.ObjectType(), err)
	}

	b.obj = obj
	b.lifecycle = BeanInitialized
	if namedBean, ok := obj.(NamedBean); ok {
		b.name = namedBean.BeanName()
	}
	b.valuePtr = reflect.ValueOf(obj)

	return b, !singleton, nil
}

/**
Detach element bean from the factory, so the factory would never produce it
*/
func (t *factory) detach(elem *bean) {
	for i, b := range t.instances {
		if b == elem {
			t.instances = append(t.instances[:i], t.instances[i+1:]...)
			return
		}
	}
}

type factoryDependency struct {

	factory *factory

	/*
		Injection function where we need to inject produced instance
	*/
	injection func(instance *bean) error
}

/**
Investigate bean by using reflection
*/
func investigate(obj interface{}, classPtr reflect.Type) (*bean, error) {
	if classPtr.Kind() != reflect.Ptr || classPtr.Elem().Kind() != reflect.Struct {
		return nil, errors.Errorf("bean must be a pointer to struct, but was '%v'", classPtr)
	}
	var fields []*injectionDef
	var properties []*propInjectionDef
	var anonymousFields []reflect.Type
	value := reflect.ValueOf(obj).Elem()
	class := classPtr.Elem()
	for j := 0; j < class.NumField(); j++ {
		field := class.Field(j)

		if field.Anonymous {
			anonymousFields = append(anonymousFields, field.Type)
			if err := stubAnonymousField(value.Field(j), field, classPtr); err != nil {
				return nil, err
			}
		}

		if valueTag, ok := field.Tag.Lookup("value"); ok {
			if field.Anonymous {
				return nil, errors.Errorf("injection to anonymous field '%s' in '%v' is not allowed", field.Name, classPtr)
			}
			def, err := parseValueTag(valueTag, class, j, field)
			if err != nil {
				return nil, errors.Errorf("%v in %v with 'value' tag", err, classPtr)
			}
			properties = append(properties, def)
			continue
		}

		injectTag, hasInjectTag := field.Tag.Lookup("inject")
		if field.Tag == "inject" || hasInjectTag {
			if field.Anonymous {
				return nil, errors.Errorf("injection to anonymous field '%s' in '%v' is not allowed", field.Name, classPtr)
			}
			def, err := parseInjectTag(injectTag, class, j, field)
			if err != nil {
				return nil, errors.Errorf("%v in %v with 'inject' tag", err, classPtr)
			}
			fields = append(fields, def)
		}
	}
	name := classPtr.String()
	var qualifier string
	if namedBean, ok := obj.(NamedBean); ok {
		name = namedBean.BeanName()
		qualifier = name
	}
	b := &bean{
		name:      name,
		qualifier: qualifier,
		obj:       obj,
		valuePtr:  reflect.ValueOf(obj),
		beanDef: &beanDef{
			classPtr:        classPtr,
			anonymousFields: anonymousFields,
			fields:          fields,
			properties:      properties,
		},
		lifecycle: BeanCreated,
	}
	if orderedBean, ok := obj.(OrderedBean); ok {
		b.ordered = true
		b.order = orderedBean.BeanOrder()
	}
	return b, nil
}

func parseValueTag(tag string, class reflect.Type, num int, field reflect.StructField) (*propInjectionDef, error) {
	def := &propInjectionDef{
		class:     class,
		fieldNum:  num,
		fieldName: field.Name,
		fieldType: field.Type,
	}
	for i, pair := range strings.Split(tag, ",") {
		p := strings.TrimSpace(pair)
		if i == 0 {
			def.propertyName = p
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) < 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "default":
			def.defaultValue = strings.TrimSpace(kv[1])
		case "layout":
			def.layout = strings.TrimSpace(kv[1])
		}
	}
	if def.propertyName == "" {
		return nil, errors.Errorf("empty property name in field '%s' with type '%v' on position %d", field.Name, field.Type, num)
	}
	return def, nil
}

func parseInjectTag(tag string, class reflect.Type, num int, field reflect.StructField) (*injectionDef, error) {
	def := &injectionDef{
		class:     class,
		fieldNum:  num,
		fieldName: field.Name,
		fieldType: field.Type,
	}
	for _, pair := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		switch strings.TrimSpace(kv[0]) {
		case "bean":
			if len(kv) > 1 {
				def.qualifier = strings.TrimSpace(kv[1])
			}
		case "optional":
			def.optional = true
		case "lazy":
			def.lazy = true
		}
	}
	kind := field.Type.Kind()
	switch kind {
	case reflect.Slice:
		def.slice = true
		def.fieldType = field.Type.Elem()
	case reflect.Map:
		if field.Type.Key().Kind() != reflect.String {
			return nil, errors.Errorf("map must have string key to be injected for field type '%v' on position %d", field.Type, num)
		}
		def.table = true
		def.fieldType = field.Type.Elem()
	}
	kind = def.fieldType.Kind()
	if kind != reflect.Ptr && kind != reflect.Interface {
		return nil, errors.Errorf("not a pointer or interface field type '%v' on position %d", field.Type, num)
	}
	return def, nil
}

func isSomeoneImplements(iface reflect.Type, list []reflect.Type) bool {
	for _, el := range list {
		if el.Implements(iface) {
			return true
		}
	}
	return false
}

func beanNames(list []*bean) string {
	var out strings.Builder
	for i, b := range list {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(strconv.Quote(b.name))
	}
	return out.String()
}
