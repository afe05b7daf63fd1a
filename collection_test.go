/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue_test

import (
	"github.com/codeallergy/cloudglue"
	"github.com/stretchr/testify/require"
	"reflect"
	"strings"
	"testing"
)

/**
Post processor running the function, used to mutate the registry in tests
*/
type registryHook struct {
	fn func(registry cloudglue.BeanRegistry) error
}

func (t *registryHook) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	return t.fn(registry)
}

var endpointClass = reflect.TypeOf((*endpoint)(nil)) // *endpoint
type endpoint struct {
	name string
	url  string
}

func (t *endpoint) BeanName() string {
	return t.name
}

var RouteClass = reflect.TypeOf((*Route)(nil)).Elem()

type Route interface {
	cloudglue.NamedBean
	URL() string
}

type orderedRoute struct {
	name string
	url  string
}

func (t *orderedRoute) BeanName() string {
	return t.name
}

func (t *orderedRoute) BeanOrder() int {
	return int(t.name[0] - 'a')
}

func (t *orderedRoute) URL() string {
	return t.url
}

type endpointList struct {
	Endpoints []*endpoint `inject`
}

type endpointMap struct {
	Endpoints map[string]*endpoint `inject`
}

type routeList struct {
	Routes []Route `inject`
}

type routeMap struct {
	Routes map[string]Route `inject`
}

/**
Replaces endpoint by the name with the one pointing to the url
*/
func replaceEndpoint(name, url string) func(cloudglue.BeanRegistry) error {
	return func(registry cloudglue.BeanRegistry) error {
		for _, b := range registry.BeansByName(name) {
			if _, err := registry.Replace(b, &endpoint{name: name, url: url}); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestCollectionRequired(t *testing.T) {

	for _, holder := range []interface{}{&endpointList{}, &endpointMap{}, &routeList{}, &routeMap{}} {
		_, err := cloudglue.New(holder)
		require.Error(t, err)
		require.True(t, strings.Contains(err.Error(), "can not find candidates"), err.Error())
	}
}

func TestSliceWithReplacedAndRegistered(t *testing.T) {

	holder := &endpointList{}
	replace := replaceEndpoint("b", "cloud://b")

	ctx, err := cloudglue.New(
		&endpoint{name: "a", url: "local://a"},
		&endpoint{name: "b", url: "local://b"},
		&endpoint{name: "c", url: "local://c"},
		&registryHook{fn: func(registry cloudglue.BeanRegistry) error {
			if err := replace(registry); err != nil {
				return err
			}
			_, err := registry.Register("d", &endpoint{name: "d", url: "cloud://d"})
			return err
		}},
		holder,
	)
	require.NoError(t, err)
	defer ctx.Close()

	var urls []string
	for _, e := range holder.Endpoints {
		urls = append(urls, e.url)
	}
	// replacement takes the place of the displaced bean, registered bean goes last
	require.Equal(t, []string{"local://a", "cloud://b", "local://c", "cloud://d"}, urls)

	list := ctx.Lookup("b")
	require.Equal(t, 1, len(list))
	require.Equal(t, holder.Endpoints[1], list[0].Object())

	require.Equal(t, 4, len(ctx.Bean(endpointClass)))
}

func TestOrderedSliceWithRegistered(t *testing.T) {

	holder := &routeList{}

	ctx, err := cloudglue.New(
		&orderedRoute{name: "c"},
		&orderedRoute{name: "a"},
		&registryHook{fn: func(registry cloudglue.BeanRegistry) error {
			_, err := registry.Register("", &orderedRoute{name: "b", url: "cloud://b"})
			return err
		}},
		holder,
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, 3, len(holder.Routes))
	require.Equal(t, "a", holder.Routes[0].BeanName())
	require.Equal(t, "b", holder.Routes[1].BeanName())
	require.Equal(t, "cloud://b", holder.Routes[1].URL())
	require.Equal(t, "c", holder.Routes[2].BeanName())

	list := ctx.Bean(RouteClass)
	require.Equal(t, 3, len(list))
}

func TestMapWithReplaced(t *testing.T) {

	holder := &endpointMap{}

	ctx, err := cloudglue.New(
		&endpoint{name: "a", url: "local://a"},
		&endpoint{name: "b", url: "local://b"},
		&registryHook{fn: replaceEndpoint("a", "cloud://a")},
		holder,
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, 2, len(holder.Endpoints))
	require.Equal(t, "cloud://a", holder.Endpoints["a"].url)
	require.Equal(t, "local://b", holder.Endpoints["b"].url)
}

func TestMapKeysIgnoreAliases(t *testing.T) {

	holder := &routeMap{}

	ctx, err := cloudglue.New(
		&orderedRoute{name: "a"},
		&registryHook{fn: func(registry cloudglue.BeanRegistry) error {
			if _, err := registry.Register("backup", &orderedRoute{name: "b"}); err != nil {
				return err
			}
			return registry.Alias("a", "primary")
		}},
		holder,
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, 2, len(holder.Routes))
	require.NotNil(t, holder.Routes["a"])
	require.NotNil(t, holder.Routes["backup"])

	list := ctx.Lookup("primary")
	require.Equal(t, 1, len(list))
	require.Equal(t, holder.Routes["a"], list[0].Object())
}

func TestMapDuplicates(t *testing.T) {

	_, err := cloudglue.New(
		&endpoint{name: "a"},
		&registryHook{fn: func(registry cloudglue.BeanRegistry) error {
			_, err := registry.Register("a", &endpoint{name: "a"})
			return err
		}},
		&endpointMap{},
	)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "duplicates"), err.Error())

	_, err = cloudglue.New(
		&orderedRoute{name: "a"},
		&orderedRoute{name: "a"},
		&routeMap{},
	)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "duplicates"), err.Error())
}

type primaryEndpoints struct {
	Endpoints []*endpoint          `inject:"bean=primary"`
	Replaced  map[string]*endpoint `inject:"bean=b"`
}

func TestQualifiedCollections(t *testing.T) {

	holder := &primaryEndpoints{}

	ctx, err := cloudglue.New(
		&endpoint{name: "a", url: "local://a1"},
		&endpoint{name: "a", url: "local://a2"},
		&endpoint{name: "b", url: "local://b"},
		&registryHook{fn: func(registry cloudglue.BeanRegistry) error {
			if err := replaceEndpoint("b", "cloud://b")(registry); err != nil {
				return err
			}
			return registry.Alias("a", "primary")
		}},
		holder,
	)
	require.NoError(t, err)
	defer ctx.Close()

	// alias is added to every bean with the name
	require.Equal(t, 2, len(holder.Endpoints))
	require.Equal(t, "local://a1", holder.Endpoints[0].url)
	require.Equal(t, "local://a2", holder.Endpoints[1].url)

	require.Equal(t, 1, len(holder.Replaced))
	require.Equal(t, "cloud://b", holder.Replaced["b"].url)
}
