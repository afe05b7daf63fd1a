/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue_test

import (
	"errors"
	"github.com/codeallergy/cloudglue"
	"github.com/stretchr/testify/require"
	"reflect"
	"strings"
	"testing"
)

var connectionClass = reflect.TypeOf((*connection)(nil)) // *connection
type connection struct {
	url    string
	closed bool
}

func (t *connection) Close() error {
	t.closed = true
	return nil
}

func (t *connection) BeanName() string {
	return "dataSource"
}

type repository struct {
	Connection *connection `inject`
}

type replacingProcessor struct {
	URL      string `value:"cloud.url,default=cloud://default"`
	replaced cloudglue.Bean
	called   int
}

func (t *replacingProcessor) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	t.called++
	list := registry.BeansOfType(connectionClass)
	if len(list) != 1 {
		return errors.New("expected single connection")
	}
	b, err := registry.Replace(list[0], &connection{url: t.URL})
	if err != nil {
		return err
	}
	t.replaced = b
	return nil
}

func TestReplaceBeforeWiring(t *testing.T) {

	local := &connection{url: "local://"}
	repo := &repository{}
	processor := &replacingProcessor{}

	ctx, err := cloudglue.New(
		cloudglue.PropertySource{Map: map[string]interface{}{"cloud.url": "cloud://bound"}},
		repo,
		local,
		processor,
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, 1, processor.called)
	require.True(t, local.closed)

	require.NotNil(t, repo.Connection)
	require.Equal(t, "cloud://bound", repo.Connection.url)
	require.False(t, repo.Connection.closed)

	list := ctx.Lookup("dataSource")
	require.Equal(t, 1, len(list))
	require.Equal(t, repo.Connection, list[0].Object())
	require.Equal(t, processor.replaced, list[0])

	list = ctx.Bean(connectionClass)
	require.Equal(t, 1, len(list))
	require.Equal(t, repo.Connection, list[0].Object())
}

type otherConnection struct {
}

type wrongTypeProcessor struct {
}

func (t *wrongTypeProcessor) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	for _, b := range registry.BeansOfType(connectionClass) {
		if _, err := registry.Replace(b, &otherConnection{}); err != nil {
			return err
		}
	}
	return nil
}

func TestReplaceByWrongType(t *testing.T) {

	local := &connection{url: "local://"}

	ctx, err := cloudglue.New(
		local,
		&wrongTypeProcessor{},
	)
	require.Error(t, err)
	require.Nil(t, ctx)
	require.True(t, strings.Contains(err.Error(), "not assignable"))
	require.False(t, local.closed)
}

type selfReplacingProcessor struct {
}

func (t *selfReplacingProcessor) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	list := registry.BeansOfType(reflect.TypeOf(t))
	if len(list) != 1 {
		return errors.New("processor is not visible")
	}
	_, err := registry.Replace(list[0], &selfReplacingProcessor{})
	return err
}

func TestReplaceInitializedBean(t *testing.T) {

	_, err := cloudglue.New(
		&selfReplacingProcessor{},
	)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "already initialized"))
}

type registeringProcessor struct {
}

func (t *registeringProcessor) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	if _, err := registry.Register("replica", &connection{url: "replica://"}); err != nil {
		return err
	}
	if err := registry.Alias("dataSource", "primaryDataSource"); err != nil {
		return err
	}
	if err := registry.Alias("unknown", "alias"); err == nil {
		return errors.New("alias of unknown bean must fail")
	}
	if len(registry.BeansByName("primaryDataSource")) != 1 {
		return errors.New("alias is not visible")
	}
	return nil
}

func TestRegisterAndAlias(t *testing.T) {

	holder := &struct {
		Primary *connection            `inject:"bean=primaryDataSource"`
		Replica *connection            `inject:"bean=replica"`
		All     map[string]*connection `inject`
	}{}

	ctx, err := cloudglue.New(
		&connection{url: "local://"},
		&registeringProcessor{},
		holder,
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, "local://", holder.Primary.url)
	require.Equal(t, "replica://", holder.Replica.url)
	require.Equal(t, 2, len(holder.All))
	require.Equal(t, holder.Replica, holder.All["replica"])

	list := ctx.Lookup("primaryDataSource")
	require.Equal(t, 1, len(list))
	require.Equal(t, "dataSource", list[0].Name())
	require.Equal(t, []string{"primaryDataSource"}, list[0].Aliases())
}

var DataSourceClass = reflect.TypeOf((*DataSource)(nil)).Elem()

type DataSource interface {
	URL() string
}

type dataSourceImpl struct {
	url string
}

func (t *dataSourceImpl) URL() string {
	return t.url
}

type dataSourceFactory struct {
	called bool
}

func (t *dataSourceFactory) Object() (interface{}, error) {
	t.called = true
	return &dataSourceImpl{url: "factory://"}, nil
}

func (t *dataSourceFactory) ObjectType() reflect.Type {
	return DataSourceClass
}

func (t *dataSourceFactory) ObjectName() string {
	return "dataSource"
}

func (t *dataSourceFactory) Singleton() bool {
	return true
}

type productReplacingProcessor struct {
	cloudglue.OrderedBean
	Repository *repository `inject`
	seen       []cloudglue.Bean
	order      *[]string
}

func (t *productReplacingProcessor) BeanOrder() int {
	return 2
}

func (t *productReplacingProcessor) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	*t.order = append(*t.order, "product")
	t.seen = registry.BeansOfType(DataSourceClass)
	for _, b := range t.seen {
		if _, ok := b.FactoryBean(); ok && b.Object() == nil {
			if _, err := registry.Replace(b, &dataSourceImpl{url: "cloud://"}); err != nil {
				return err
			}
		}
	}
	return nil
}

type firstProcessor struct {
	cloudglue.OrderedBean
	cloudglue.InitializingBean
	constructed bool
	order       *[]string
}

func (t *firstProcessor) BeanOrder() int {
	return 1
}

func (t *firstProcessor) PostConstruct() error {
	t.constructed = true
	return nil
}

func (t *firstProcessor) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	if !t.constructed {
		return errors.New("post processor is not constructed")
	}
	*t.order = append(*t.order, "first")
	return nil
}

func TestReplaceFactoryProduct(t *testing.T) {

	var order []string
	factory := &dataSourceFactory{}
	processor := &productReplacingProcessor{order: &order}
	holder := &struct {
		DataSource DataSource `inject:"bean=dataSource"`
	}{}

	ctx, err := cloudglue.New(
		factory,
		holder,
		processor,
		&firstProcessor{order: &order},
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, []string{"first", "product"}, order)
	require.Equal(t, 1, len(processor.seen))
	require.Nil(t, processor.Repository)

	require.False(t, factory.called)
	require.Equal(t, "cloud://", holder.DataSource.URL())

	list := ctx.Bean(DataSourceClass)
	require.Equal(t, 1, len(list))
	_, isProduct := list[0].FactoryBean()
	require.False(t, isProduct)
}

type failingProcessor struct {
}

func (t *failingProcessor) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {
	return errors.New("processor failure")
}

func TestPostProcessorFailure(t *testing.T) {

	ctx, err := cloudglue.New(
		&connection{},
		&failingProcessor{},
	)
	require.Error(t, err)
	require.Nil(t, ctx)
	require.True(t, strings.Contains(err.Error(), "processor failure"))
}

type declaredOnly struct {
	cloudglue.InitializingBean
}

type declaredProcessor struct {
	cloudglue.BeanFactoryPostProcessor
}

func TestAnonymousInterfaceWithoutMethod(t *testing.T) {

	_, err := cloudglue.New(&declaredOnly{})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "does not implement PostConstruct method, but has anonymous field InitializingBean"), err.Error())

	_, err = cloudglue.New(&declaredProcessor{})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "does not implement PostProcessBeanFactory method"), err.Error())
}
