/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import (
	"fmt"
	"github.com/pkg/errors"
	"io/fs"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	durationClass   = reflect.TypeOf(time.Millisecond)
	timeClass       = reflect.TypeOf(time.Time{})
	osFileModeClass = reflect.TypeOf(os.FileMode(0777))
	fsFileModeClass = reflect.TypeOf(fs.FileMode(0777))
)

type injectionDef struct {

	/**
	Class of that struct
	*/
	class reflect.Type
	/**
	Field number of that struct
	*/
	fieldNum int
	/**
	Field name where injection is going to be happen
	*/
	fieldName string
	/**
	Type of the field or element type for slices and maps
	*/
	fieldType reflect.Type
	/**
	Field is Slice of beans
	*/
	slice bool
	/**
	Field is Map of beans
	*/
	table bool
	/**
	Lazy injection does not register construction dependency
	*/
	lazy bool
	/**
	Optional injection
	*/
	optional bool
	/*
	Injection expects the specific bean name or alias
	*/
	qualifier string
}

type injection struct {

	/*
	Bean where injection is going to be happen
	*/
	bean *bean

	/**
	Reflection value of the bean where injection is going to be happen
	*/
	value reflect.Value

	injectionDef *injectionDef
}

type propInjectionDef struct {

	class reflect.Type

	fieldNum int

	fieldName string

	fieldType reflect.Type

	/**
	Property name of injecting placeholder property
	*/
	propertyName string

	defaultValue string

	/**
	Layout for date-time property
	*/
	layout string
}

/**
Order beans, all or partially
*/
func orderBeans(candidates []*bean) []*bean {
	var ordered, unordered []*bean
	for _, candidate := range candidates {
		if candidate.ordered {
			ordered = append(ordered, candidate)
		} else {
			unordered = append(unordered, candidate)
		}
	}
	if len(ordered) == 0 {
		return candidates
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].order < ordered[j].order
	})
	return append(ordered, unordered...)
}

/**
Inject value in to the field by using reflection
*/
func (t *injection) inject(candidates []*bean) error {

	def := t.injectionDef
	list := def.filterBeans(orderBeans(candidates))

	field := t.value.Field(def.fieldNum)
	if !field.CanSet() {
		return errors.Errorf("field '%s' in class '%v' is not public", def.fieldName, def.class)
	}

	if len(list) == 0 {
		if def.optional {
			return nil
		}
		if def.qualifier != "" {
			return errors.Errorf("can not find candidates to inject the required field '%s' in class '%v' with qualifier '%s'", def.fieldName, def.class, def.qualifier)
		}
		return errors.Errorf("can not find candidates to inject the required field '%s' in class '%v'", def.fieldName, def.class)
	}

	if def.slice {
		for _, impl := range list {
			if impl.beenFactory != nil {
				t.dependOnFactory(impl, func(service *bean) error {
					field.Set(reflect.Append(field, service.valuePtr))
					return nil
				})
			} else {
				field.Set(reflect.Append(field, impl.valuePtr))
				t.dependOn(impl)
			}
		}
		return nil
	}

	if def.table {
		field.Set(reflect.MakeMap(field.Type()))
		visited := make(map[string]bool)
		put := func(b *bean) error {
			if visited[b.name] {
				return errors.Errorf("can not inject duplicates '%s' to the map field '%s' in class '%v'", b.name, def.fieldName, def.class)
			}
			visited[b.name] = true
			field.SetMapIndex(reflect.ValueOf(b.name), b.valuePtr)
			return nil
		}
		for _, impl := range list {
			if impl.beenFactory != nil {
				t.dependOnFactory(impl, put)
			} else {
				if err := put(impl); err != nil {
					return err
				}
				t.dependOn(impl)
			}
		}
		return nil
	}

	if len(list) > 1 {
		return errors.Errorf("field '%s' in class '%v' can not be injected with multiple candidates %s", def.fieldName, def.class, beanNames(list))
	}

	impl := list[0]

	if impl.beenFactory != nil {
		if def.lazy {
			return errors.Errorf("lazy injection is not supported of type '%v' through factory '%v' in to '%v'", impl.beenFactory.factoryBean.ObjectType(), impl.beenFactory.factoryClassPtr, t.String())
		}
		t.dependOnFactory(impl, func(service *bean) error {
			field.Set(service.valuePtr)
			return nil
		})
		return nil
	}

	field.Set(impl.valuePtr)
	t.dependOn(impl)
	return nil
}

/**
Register dependency that 'inject.bean' is using if it is not lazy
*/
func (t *injection) dependOn(impl *bean) {
	if !t.injectionDef.lazy && t.bean != impl {
		t.bean.dependencies = append(t.bean.dependencies, impl)
	}
}

/**
Register factory dependency for 'inject.bean' that is using 'factory'
*/
func (t *injection) dependOnFactory(impl *bean, cb func(service *bean) error) {
	t.bean.factoryDependencies = append(t.bean.factoryDependencies,
		&factoryDependency{
			factory:   impl.beenFactory,
			injection: cb,
		})
}

// runtime injection
func (t *injectionDef) inject(value *reflect.Value, candidates []*bean) error {

	list := t.filterBeans(orderBeans(candidates))

	field := value.Field(t.fieldNum)
	if !field.CanSet() {
		return errors.Errorf("field '%s' in class '%v' is not public", t.fieldName, t.class)
	}

	if len(list) == 0 {
		if t.optional {
			return nil
		}
		return errors.Errorf("can not find candidates to inject the required field '%s' in class '%v'", t.fieldName, t.class)
	}

	if t.slice {
		for _, b := range list {
			if b.valuePtr.IsValid() {
				field.Set(reflect.Append(field, b.valuePtr))
			}
		}
		return nil
	}

	if t.table {
		field.Set(reflect.MakeMap(field.Type()))
		for _, b := range list {
			if b.valuePtr.IsValid() {
				field.SetMapIndex(reflect.ValueOf(b.name), b.valuePtr)
			}
		}
		return nil
	}

	if len(list) > 1 {
		return errors.Errorf("field '%s' in class '%v' can not be injected with multiple candidates %s", t.fieldName, t.class, beanNames(list))
	}

	impl := list[0]
	if impl.beenFactory != nil {
		service, _, err := impl.beenFactory.ctor()
		if err != nil {
			return errors.Errorf("field '%s' in class '%v' can not be injected because of factory bean %+v error, %v", t.fieldName, t.class, impl, err)
		}
		impl = service
	}

	if impl.lifecycle != BeanInitialized {
		return errors.Errorf("field '%s' in class '%v' can not be injected with non-initialized bean %+v", t.fieldName, t.class, impl)
	}

	field.Set(impl.valuePtr)
	return nil
}

func (t *injectionDef) filterBeans(list []*bean) []*bean {
	if t.qualifier == "" {
		return list
	}
	var candidates []*bean
	for _, b := range list {
		if b.hasName(t.qualifier) {
			candidates = append(candidates, b)
		}
	}
	return candidates
}

func (t *injection) String() string {
	return t.injectionDef.String()
}

func (t *injectionDef) String() string {
	if t.qualifier != "" {
		return fmt.Sprintf(" %v->%s(%s) ", t.class, t.fieldName, t.qualifier)
	} else {
		return fmt.Sprintf(" %v->%s ", t.class, t.fieldName)
	}
}

func (t *propInjectionDef) inject(value *reflect.Value, properties Properties) error {

	field := value.Field(t.fieldNum)
	if !field.CanSet() {
		return errors.Errorf("field '%s' in class '%v' is not public", t.fieldName, t.class)
	}

	strValue := properties.GetString(t.propertyName, t.defaultValue)

	v, err := convertProperty(strValue, t.fieldType, t.layout)
	if err != nil {
		return errors.Errorf("property '%s' in class '%v' has convert error, %v", t.fieldName, t.class, err)
	}

	field.Set(v)
	return nil
}

func convertProperty(s string, t reflect.Type, layout string) (reflect.Value, error) {
	var v interface{}
	var err error

	switch {

	case t.Kind() == reflect.Slice:
		parts := trimSplit(s, ";")
		slice := reflect.MakeSlice(t, 0, len(parts))
		for _, part := range parts {
			val, err := convertProperty(part, t.Elem(), layout)
			if err != nil {
				return slice, err
			}
			slice = reflect.Append(slice, val)
		}
		return slice, nil

	case t == durationClass:
		v, err = time.ParseDuration(s)

	case t == timeClass:
		if layout == "" {
			layout = time.RFC3339
		}
		v, err = time.Parse(layout, s)

	case t == osFileModeClass || t == fsFileModeClass:
		v = parseFileMode(s)

	case t.Kind() == reflect.Bool:
		v, err = parseBool(s)

	case t.Kind() == reflect.String:
		v = s

	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		v, err = strconv.ParseFloat(s, 64)

	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
		v, err = strconv.ParseInt(s, 10, 64)

	case t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64:
		v, err = strconv.ParseUint(s, 10, 64)

	default:
		return reflect.Zero(t), errors.Errorf("unsupported type %s", t)
	}

	if err != nil {
		return reflect.Zero(t), err
	}

	return reflect.ValueOf(v).Convert(t), nil
}

func trimSplit(s string, sep string) []string {
	var a []string
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			a = append(a, v)
		}
	}
	return a
}
