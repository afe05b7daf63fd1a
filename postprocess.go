/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import (
	"github.com/pkg/errors"
	"io"
	"reflect"
)

/**
Bean registry implementation given to post processors, operates directly on scanned core of the context.
*/

type beanRegistry struct {
	ctx *context
}

func (t *beanRegistry) Properties() Properties {
	return t.ctx.properties
}

func (t *beanRegistry) BeansOfType(typ reflect.Type) []Bean {
	var list []Bean
	for _, b := range orderBeans(t.ctx.searchCandidates(typ)) {
		list = append(list, b)
	}
	return list
}

func (t *beanRegistry) BeansByName(name string) []Bean {
	var list []Bean
	for _, b := range t.findByName(name) {
		list = append(list, b)
	}
	return list
}

func (t *beanRegistry) findByName(name string) []*bean {
	var list []*bean
	for _, candidates := range t.ctx.core {
		for _, b := range candidates {
			if b.hasName(name) {
				list = append(list, b)
			}
		}
	}
	return orderBeans(list)
}

func (t *beanRegistry) Replace(target Bean, obj interface{}) (Bean, error) {

	old, ok := target.(*bean)
	if !ok || !t.owns(old) {
		return nil, errors.Errorf("bean '%v' is not registered in context", target)
	}
	if obj == nil {
		return nil, errors.Errorf("can not replace bean '%s' by nil object", old.name)
	}
	if old.lifecycle == BeanInitialized {
		return nil, errors.Errorf("bean '%s' is already initialized and can not be replaced", old.name)
	}

	classPtr := reflect.TypeOf(obj)
	oldClassPtr := old.beanDef.classPtr
	if oldClassPtr.Kind() == reflect.Interface {
		if !classPtr.Implements(oldClassPtr) {
			return nil, errors.Errorf("replacement '%v' of bean '%s' does not implement '%v'", classPtr, old.name, oldClassPtr)
		}
	} else if classPtr != oldClassPtr {
		return nil, errors.Errorf("replacement '%v' of bean '%s' is not assignable to '%v'", classPtr, old.name, oldClassPtr)
	}

	replacement, err := investigate(obj, classPtr)
	if err != nil {
		return nil, err
	}
	replacement.name = old.name
	replacement.aliases = append([]string(nil), old.aliases...)
	if replacement.qualifier == "" {
		replacement.qualifier = old.qualifier
	}
	if !replacement.ordered {
		replacement.ordered, replacement.order = old.ordered, old.order
	}

	swapRegistered(t.ctx.core, old, classPtr, replacement)
	t.ctx.primaryList = replaceBean(t.ctx.primaryList, old, replacement)
	t.ctx.secondaryList = replaceBean(t.ctx.secondaryList, old, replacement)

	if old.beenFactory != nil {
		old.beenFactory.detach(old)
	} else if closer, ok := old.obj.(io.Closer); ok && old.obj != obj {
		if err := closer.Close(); err != nil && verbose != nil {
			verbose.Printf("Close displaced bean '%s' with type '%v' error, %v\n", old.name, oldClassPtr, err)
		}
	}

	if verbose != nil {
		verbose.Printf("Replace bean '%s' with type '%v' by '%v'\n", old.name, oldClassPtr, classPtr)
	}

	return replacement, nil
}

func (t *beanRegistry) Register(name string, obj interface{}) (Bean, error) {
	if obj == nil {
		return nil, errors.Errorf("can not register nil object with name '%s'", name)
	}
	classPtr := reflect.TypeOf(obj)
	b, err := investigate(obj, classPtr)
	if err != nil {
		return nil, err
	}
	if name != "" {
		b.name = name
		b.qualifier = name
	}
	registerBean(t.ctx.core, classPtr, b)
	t.ctx.secondaryList = append(t.ctx.secondaryList, b)
	if verbose != nil {
		verbose.Printf("Register bean '%s' with type '%v'\n", b.name, classPtr)
	}
	return b, nil
}

func (t *beanRegistry) Alias(name, alias string) error {
	if alias == "" || alias == name {
		return errors.Errorf("invalid alias '%s' for bean '%s'", alias, name)
	}
	list := t.findByName(name)
	if len(list) == 0 {
		return errors.Errorf("bean '%s' is not found for alias '%s'", name, alias)
	}
	for _, b := range list {
		if !b.hasName(alias) {
			b.aliases = append(b.aliases, alias)
		}
	}
	return nil
}

func (t *beanRegistry) owns(b *bean) bool {
	for _, list := range t.ctx.core {
		if containsBean(list, b) {
			return true
		}
	}
	return false
}

/**
Replacement keeps the position of the displaced bean when both are registered with the same type
*/
func swapRegistered(registry map[reflect.Type][]*bean, old *bean, classPtr reflect.Type, replacement *bean) {
	for i, b := range registry[classPtr] {
		if b == old {
			registry[classPtr][i] = replacement
			return
		}
	}
	unregisterBean(registry, old)
	registerBean(registry, classPtr, replacement)
}

func replaceBean(list []*bean, old, replacement *bean) []*bean {
	for i, b := range list {
		if b == old {
			list[i] = replacement
		}
	}
	return list
}
