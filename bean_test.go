/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue_test

import (
	"github.com/stretchr/testify/require"
	"github.com/codeallergy/cloudglue"
	"reflect"
	"strings"
	"testing"
)

var FirstBeanClass = reflect.TypeOf((*firstBean)(nil)) // *firstBean
type firstBean struct {
}

var SecondBeanClass = reflect.TypeOf((*secondBean)(nil)) // *secondBean
type secondBean struct {
	FirstBean *firstBean `inject:"-"`
	testing   *testing.T
}

func (t *secondBean) Run() {
	require.NotNil(t.testing, t.FirstBean)
}

func TestBeanByPointer(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstBean{},
		&secondBean{testing: t},
	)
	require.NoError(t, err)
	defer ctx.Close()

	second := ctx.Bean(SecondBeanClass)
	require.Equal(t, 1, len(second))

	second[0].Object().(*secondBean).Run()

}

func TestMultipleBeanByPointer(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstBean{},
		&firstBean{},
		&secondBean{testing: t},
	)

	require.Error(t, err)
	require.Nil(t, ctx)
	require.True(t, strings.Contains(err.Error(), "multiple candidates"))
	println(err.Error())

}

func TestSearchBeanByPointerNotFound(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstBean{},
	)
	require.NoError(t, err)
	defer ctx.Close()

	second := ctx.Bean(SecondBeanClass)
	require.Equal(t, 0, len(second))

}

func TestBeanByStruct(t *testing.T) {

	ctx, err := cloudglue.New(
		firstBean{},
		&secondBean{testing: t},
	)
	require.Error(t, err)
	require.Nil(t, ctx)
	require.True(t, strings.Contains(err.Error(), "could be a pointer"))

}

var FirstServiceClass = reflect.TypeOf((*FirstService)(nil)).Elem()

type FirstService interface {
	First()
}

var SecondServiceClass = reflect.TypeOf((*SecondService)(nil)).Elem()

type SecondService interface {
	Second()
}

type firstServiceImpl struct {
	testing *testing.T
}

func (t *firstServiceImpl) First() {
	require.True(t.testing, true)
}

type secondServiceImpl struct {
	FirstService FirstService `inject`
	testing      *testing.T
}

func (t *secondServiceImpl) Second() {
	require.NotNil(t.testing, t.FirstService)
}

func TestBeanByInterface(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstServiceImpl{testing: t},
		&secondServiceImpl{testing: t},

		&struct {
			FirstService  FirstService  `inject`
			SecondService SecondService `inject`
		}{},
	)

	require.NoError(t, err)
	defer ctx.Close()

	firstService := ctx.Bean(FirstServiceClass)
	require.Equal(t, 1, len(firstService))

	firstService[0].Object().(FirstService).First()

	secondService := ctx.Bean(SecondServiceClass)
	require.Equal(t, 1, len(secondService))

	secondService[0].Object().(SecondService).Second()

}

type firstService2Impl struct {
	testing *testing.T
}

func (t *firstService2Impl) First() {
	require.True(t.testing, true)
}

func TestMultipleBeansByInterface(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstServiceImpl{testing: t},
		&firstService2Impl{testing: t},

		&struct {
			FirstService FirstService `inject:"-"`
		}{},
	)

	require.Error(t, err)
	require.Nil(t, ctx)
	println(err.Error())
	require.True(t, strings.Contains(err.Error(), "multiple candidates"))

}

func TestSpecificBeanByInterface(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstServiceImpl{testing: t},
		&firstService2Impl{testing: t},

		&struct {
			FirstService FirstService `inject:"bean=*cloudglue_test.firstServiceImpl"`
		}{},
	)

	require.NoError(t, err)
	defer ctx.Close()

	firstService := ctx.Bean(FirstServiceClass)
	require.Equal(t, 2, len(firstService))

	firstService[0].Object().(FirstService).First()

}

func TestNotFoundSpecificBeanByInterface(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstServiceImpl{testing: t},
		&firstService2Impl{testing: t},

		&struct {
			FirstService FirstService `inject:"bean=*cloudglue_test.unknownBean"`
		}{},
	)

	require.Error(t, err)
	require.Nil(t, ctx)
	println(err.Error())
	require.True(t, strings.Contains(err.Error(), "can not find candidates"))

}

type namedFirstService struct {
	name string
}

func (t *namedFirstService) First() {
}

func (t *namedFirstService) BeanName() string {
	return t.name
}

func TestQualifiedBeanByName(t *testing.T) {

	holder := &struct {
		Primary   FirstService   `inject:"bean=primary"`
		Secondary FirstService   `inject:"bean=secondary,optional"`
		All       []FirstService `inject`
	}{}

	ctx, err := cloudglue.New(
		&namedFirstService{name: "primary"},
		&namedFirstService{name: "replica"},
		holder,
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Equal(t, "primary", holder.Primary.(*namedFirstService).name)
	require.Nil(t, holder.Secondary)
	require.Equal(t, 2, len(holder.All))

	list := ctx.Lookup("replica")
	require.Equal(t, 1, len(list))
	require.Equal(t, "replica", list[0].Name())
	require.Equal(t, cloudglue.BeanInitialized, list[0].Lifecycle())
	require.True(t, list[0].Implements(FirstServiceClass))
	require.False(t, list[0].Implements(SecondServiceClass))

	_, isProduct := list[0].FactoryBean()
	require.False(t, isProduct)
}

func TestRuntimeInjectInvalid(t *testing.T) {

	ctx, err := cloudglue.New(
		&firstBean{},
	)
	require.NoError(t, err)
	defer ctx.Close()

	require.Error(t, ctx.Inject(nil))
	require.Error(t, ctx.Inject(secondBean{}))

	second := &secondBean{testing: t}
	require.NoError(t, ctx.Inject(second))
	second.Run()
}

func TestBeanOfScalarPointer(t *testing.T) {

	value := 5
	ctx, err := cloudglue.New(
		&value,
	)
	require.Error(t, err)
	require.Nil(t, ctx)
	require.True(t, strings.Contains(err.Error(), "pointer to struct"))

}
