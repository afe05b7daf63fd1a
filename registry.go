/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import (
	"reflect"
	"sync"
)

/**
	Holds runtime information about all beans visible from the context, searched by type, name or alias.
 */

type registry struct {
	sync.RWMutex
	beansByName map[string][]*bean
	beansByType map[reflect.Type][]*bean
}

func newRegistry() registry {
	return registry{
		beansByName: make(map[string][]*bean),
		beansByType: make(map[reflect.Type][]*bean),
	}
}

func (t *registry) findByType(ifaceType reflect.Type) ([]*bean, bool) {
	t.RLock()
	defer t.RUnlock()
	list, ok := t.beansByType[ifaceType]
	return list, ok
}

func (t *registry) findByName(name string) ([]*bean, bool) {
	t.RLock()
	defer t.RUnlock()
	list, ok := t.beansByName[name]
	return list, ok
}

func (t *registry) addBeanList(ifaceType reflect.Type, list []*bean) {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.beansByType[ifaceType]; !ok {
		// empty list marks the type as known
		t.beansByType[ifaceType] = []*bean{}
	}
	for _, b := range list {
		if !containsBean(t.beansByType[ifaceType], b) {
			t.beansByType[ifaceType] = append(t.beansByType[ifaceType], b)
		}
		t.addNamesLocked(b)
	}
}

func (t *registry) addBean(ifaceType reflect.Type, b *bean) {
	t.addBeanList(ifaceType, []*bean{b})
}

func (t *registry) addName(name string, b *bean) {
	t.Lock()
	defer t.Unlock()
	if !containsBean(t.beansByName[name], b) {
		t.beansByName[name] = append(t.beansByName[name], b)
	}
}

func (t *registry) addNamesLocked(b *bean) {
	if !containsBean(t.beansByName[b.name], b) {
		t.beansByName[b.name] = append(t.beansByName[b.name], b)
	}
	for _, alias := range b.aliases {
		if !containsBean(t.beansByName[alias], b) {
			t.beansByName[alias] = append(t.beansByName[alias], b)
		}
	}
}

func containsBean(list []*bean, b *bean) bool {
	for _, el := range list {
		if el == b {
			return true
		}
	}
	return false
}
