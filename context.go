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
	"time"
)

var DefaultCloseTimeout = time.Minute

type context struct {

	/**
		All instances scanned during creation of context.
		Post processors can modify it, no modifications after wiring.
	*/
	core map[reflect.Type][]*bean

	/**
	Property resolvers constructed at first, then the rest of beans
	*/
	primaryList   []*bean
	secondaryList []*bean

	/**
	List of beans in initialization order that should depose on close
	*/
	disposables []*bean

	/**
	Fast search of beans by faceType and name
	*/
	registry registry

	/**
	Placeholder properties of the context
	*/
	properties Properties

	/**
	Cache bean descriptions for Inject calls in runtime
	*/
	runtimeCache sync.Map // key is reflect.Type (classPtr), value is *beanDef

	/**
	Guarantees that context would be closed once
	*/
	closeOnce sync.Once
}

func New(scan ...interface{}) (Context, error) {
	return createContext(scan)
}

func createContext(scan []interface{}) (ctx *context, err error) {

	ctx = &context{
		core:       make(map[reflect.Type][]*bean),
		registry:   newRegistry(),
		properties: NewProperties(),
	}

	ctx.registerInitialized(ctx)
	ctx.registerInitialized(ctx.properties)

	var propertySources []*PropertySource
	var resolvers []PropertyResolver
	var postProcessors []*bean

	err = forEach("", scan, func(pos string, obj interface{}) (err error) {

		switch instance := obj.(type) {
		case PropertySource:
			if verbose != nil {
				verbose.Printf("PropertySource %d bytes, %d keys\n", len(instance.Content), len(instance.Map))
			}
			ptr := &instance
			propertySources = append(propertySources, ptr)
			obj = ptr
		case *PropertySource:
			if verbose != nil {
				verbose.Printf("PropertySource %d bytes, %d keys\n", len(instance.Content), len(instance.Map))
			}
			propertySources = append(propertySources, instance)
		}

		classPtr := reflect.TypeOf(obj)

		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("recover from object scan '%s' on error %v", classPtr.String(), r)
			}
		}()

		if classPtr.Kind() != reflect.Ptr {
			return errors.Errorf("instance could be a pointer, but was '%s' on position '%s' of type '%v'", classPtr.Kind().String(), pos, classPtr)
		}

		objBean, err := ctx.scanBean(pos, obj, classPtr)
		if err != nil {
			return err
		}

		if r, ok := obj.(PropertyResolver); ok {
			if verbose != nil {
				verbose.Printf("PropertyResolver Priority %d\n", r.Priority())
			}
			resolvers = append(resolvers, r)
			ctx.primaryList = append(ctx.primaryList, objBean)
		} else {
			ctx.secondaryList = append(ctx.secondaryList, objBean)
		}

		if _, ok := obj.(BeanFactoryPostProcessor); ok {
			postProcessors = append(postProcessors, objBean)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if err := ctx.loadProperties(propertySources); err != nil {
		return nil, err
	}

	for _, r := range resolvers {
		ctx.properties.Register(r)
	}

	if err := ctx.postProcess(postProcessors); err != nil {
		ctx.closeWithTimeout(DefaultCloseTimeout)
		return nil, err
	}

	if err := ctx.wire(); err != nil {
		ctx.closeWithTimeout(DefaultCloseTimeout)
		return nil, err
	}

	ctx.indexNames()

	if err := ctx.postConstruct(ctx.primaryList, ctx.secondaryList); err != nil {
		ctx.closeWithTimeout(DefaultCloseTimeout)
		return nil, err
	}

	return ctx, nil
}

/**
Registers internal object that does not need construction, like context itself
*/
func (t *context) registerInitialized(obj interface{}) {
	b := &bean{
		obj:      obj,
		valuePtr: reflect.ValueOf(obj),
		beanDef: &beanDef{
			classPtr: reflect.TypeOf(obj),
		},
		lifecycle: BeanInitialized,
	}
	b.name = b.beanDef.classPtr.String()
	registerBean(t.core, b.beanDef.classPtr, b)
}

func (t *context) scanBean(pos string, obj interface{}, classPtr reflect.Type) (*bean, error) {

	objBean, err := investigate(obj, classPtr)
	if err != nil {
		return nil, err
	}

	factoryBean, isFactoryBean := obj.(FactoryBean)

	if verbose != nil {
		if isFactoryBean {
			var info string
			if factoryBean.Singleton() {
				info = "singleton"
			} else {
				info = "non-singleton"
			}
			verbose.Printf("FactoryBean %v produce %s %v with name '%s'\n", classPtr, info, factoryBean.ObjectType(), factoryBean.ObjectName())
		} else if objBean.qualifier != "" {
			verbose.Printf("Bean %v with name '%s'\n", classPtr, objBean.qualifier)
		} else {
			verbose.Printf("Bean %v\n", classPtr)
		}
		for _, injectDef := range objBean.beanDef.fields {
			verbose.Printf("	Field %v\n", injectDef)
		}
	}

	if isFactoryBean {
		elemClassPtr := factoryBean.ObjectType()
		elemClassKind := elemClassPtr.Kind()
		if elemClassKind != reflect.Ptr && elemClassKind != reflect.Interface {
			return nil, errors.Errorf("factory bean '%v' on position '%s' can produce ptr or interface, but object type is '%v'", classPtr, pos, elemClassPtr)
		}
		f := &factory{
			bean:            objBean,
			factoryObj:      obj,
			factoryClassPtr: classPtr,
			factoryBean:     factoryBean,
		}
		objectName := factoryBean.ObjectName()
		if objectName == "" {
			objectName = elemClassPtr.String()
		}
		elemBean := &bean{
			name:        objectName,
			beenFactory: f,
			beanDef: &beanDef{
				classPtr: elemClassPtr,
			},
			lifecycle: BeanAllocated,
		}
		f.instances = []*bean{elemBean}
		// allocate reference for injections even if the product does not exist yet
		registerBean(t.core, elemClassPtr, elemBean)
		t.secondaryList = append(t.secondaryList, elemBean)
	}

	registerBean(t.core, classPtr, objBean)
	return objBean, nil
}

func (t *context) closeWithTimeout(timeout time.Duration) {
	ch := make(chan error, 1)
	go func() {
		ch <- t.Close()
	}()
	select {
	case e := <-ch:
		if e != nil && verbose != nil {
			verbose.Printf("Close context error, %v\n", e)
		}
	case <-time.After(timeout):
		if verbose != nil {
			verbose.Printf("Close context timeout error.\n")
		}
	}
}

func (t *context) loadProperties(propertySources []*PropertySource) error {
	for i, source := range propertySources {
		if source.Content != "" {
			if err := t.properties.Load(strings.NewReader(source.Content)); err != nil {
				return errors.Wrapf(err, "load error of property source #%d", i)
			}
		}
		if source.Map != nil {
			t.properties.LoadMap(source.Map)
		}
	}
	return nil
}

/**
Runs bean factory post processors before wiring
*/
func (t *context) postProcess(list []*bean) error {
	if len(list) == 0 {
		return nil
	}
	registry := &beanRegistry{ctx: t}
	for _, b := range orderBeans(list) {
		if err := t.constructEarly(b); err != nil {
			return err
		}
		if verbose != nil {
			verbose.Printf("PostProcessBeanFactory '%s' with type '%v'\n", b.name, b.beanDef.classPtr)
		}
		processor := b.obj.(BeanFactoryPostProcessor)
		if err := processor.PostProcessBeanFactory(registry); err != nil {
			return errors.Errorf("bean factory post processor '%v' failed, %v", b.beanDef.classPtr, err)
		}
	}
	return nil
}

/**
Post processors get only properties and PostConstruct call
*/
func (t *context) constructEarly(b *bean) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("early construct bean '%s' with type '%v' recovered with error %v", b.name, b.beanDef.classPtr, r)
		}
	}()
	if b.lifecycle == BeanInitialized {
		return nil
	}
	b.lifecycle = BeanConstructing
	if err := t.injectProperties(b, nil); err != nil {
		return err
	}
	if initializer, ok := b.obj.(InitializingBean); ok {
		if err := initializer.PostConstruct(); err != nil {
			return errors.Errorf("post construct of post processor '%v' failed, %v", b.beanDef.classPtr, err)
		}
	}
	t.addDisposable(b)
	b.lifecycle = BeanInitialized
	return nil
}

/**
Resolves 'inject' fields of all scanned beans
*/
func (t *context) wire() error {

	var injects []*injection
	for _, list := range t.core {
		for _, b := range list {
			if b.obj == nil || b.lifecycle == BeanInitialized || len(b.beanDef.fields) == 0 {
				continue
			}
			value := b.valuePtr.Elem()
			for _, def := range b.beanDef.fields {
				injects = append(injects, &injection{b, value, def})
			}
		}
	}

	for _, inject := range injects {
		requiredType := inject.injectionDef.fieldType
		candidates := t.searchCandidates(requiredType)
		t.registry.addBeanList(requiredType, candidates)

		if verbose != nil {
			verbose.Printf("Inject '%v' by %s in to %v\n", requiredType, beanNames(candidates), inject)
		}

		if err := inject.inject(candidates); err != nil {
			return errors.Errorf("required type '%s' injection error, %v", requiredType, err)
		}
	}

	return nil
}

func (t *context) indexNames() {
	for _, list := range t.core {
		for _, b := range list {
			t.registry.addName(b.name, b)
			for _, alias := range b.aliases {
				t.registry.addName(alias, b)
			}
		}
	}
}

func registerBean(registry map[reflect.Type][]*bean, classPtr reflect.Type, bean *bean) {
	registry[classPtr] = append(registry[classPtr], bean)
}

func unregisterBean(registry map[reflect.Type][]*bean, b *bean) bool {
	for typ, list := range registry {
		for i, el := range list {
			if el == b {
				list = append(list[:i:i], list[i+1:]...)
				if len(list) == 0 {
					delete(registry, typ)
				} else {
					registry[typ] = list
				}
				return true
			}
		}
	}
	return false
}

func forEach(initialPos string, scan []interface{}, cb func(i string, obj interface{}) error) error {
	for j, item := range scan {
		var pos string
		if len(initialPos) > 0 {
			pos = fmt.Sprintf("%s.%d", initialPos, j)
		} else {
			pos = strconv.Itoa(j)
		}
		if item == nil {
			continue
		}
		switch obj := item.(type) {
		case Scanner:
			if err := forEach(pos, obj.Beans(), cb); err != nil {
				return err
			}
		case []interface{}:
			if err := forEach(pos, obj, cb); err != nil {
				return err
			}
		default:
			if err := cb(pos, obj); err != nil {
				return errors.Errorf("object '%v' error, %v", reflect.TypeOf(item), err)
			}
		}
	}
	return nil
}

func (t *context) Core() []reflect.Type {
	var list []reflect.Type
	for typ := range t.core {
		list = append(list, typ)
	}
	return list
}

func (t *context) Bean(typ reflect.Type) []Bean {
	var beanList []Bean
	for _, b := range orderBeans(t.getBean(typ)) {
		beanList = append(beanList, b)
	}
	return beanList
}

func (t *context) Lookup(name string) []Bean {
	var beanList []Bean
	if list, ok := t.registry.findByName(name); ok {
		for _, b := range orderBeans(list) {
			beanList = append(beanList, b)
		}
	}
	return beanList
}

func (t *context) Inject(obj interface{}) error {
	if obj == nil {
		return errors.New("null obj is are not allowed")
	}
	classPtr := reflect.TypeOf(obj)
	if classPtr.Kind() != reflect.Ptr {
		return errors.Errorf("non-pointer instances are not allowed, type %v", classPtr)
	}
	value := reflect.ValueOf(obj).Elem()
	bd, err := t.cache(obj, classPtr)
	if err != nil {
		return err
	}
	for _, inject := range bd.fields {
		if err := inject.inject(&value, t.getBean(inject.fieldType)); err != nil {
			return err
		}
	}
	for _, inject := range bd.properties {
		if err := inject.inject(&value, t.properties); err != nil {
			return err
		}
	}
	return nil
}

// multi-threading safe
func (t *context) getBean(typ reflect.Type) []*bean {
	if list, ok := t.registry.findByType(typ); ok {
		return list
	}
	list := t.searchCandidates(typ)
	t.registry.addBeanList(typ, list)
	return list
}

/**
Finds beans for pointer type directly and for interface type by implementation
*/
func (t *context) searchCandidates(typ reflect.Type) []*bean {
	if typ.Kind() != reflect.Interface {
		list := t.core[typ]
		out := make([]*bean, len(list))
		copy(out, list)
		return out
	}
	var candidates []*bean
	for _, list := range t.core {
		for _, b := range list {
			if b.beanDef.implements(typ) {
				candidates = append(candidates, b)
			}
		}
	}
	return candidates
}

// multi-threading safe
func (t *context) cache(obj interface{}, classPtr reflect.Type) (*beanDef, error) {
	if bd, ok := t.runtimeCache.Load(classPtr); ok {
		return bd.(*beanDef), nil
	}
	b, err := investigate(obj, classPtr)
	if err != nil {
		return nil, err
	}
	t.runtimeCache.Store(classPtr, b.beanDef)
	return b.beanDef, nil
}

func getStackInfo(stack []*bean, delim string) string {
	var out strings.Builder
	for i, b := range stack {
		if i > 0 {
			out.WriteString(delim)
		}
		out.WriteString(b.beanDef.classPtr.String())
	}
	return out.String()
}

func reverseStack(stack []*bean) []*bean {
	n := len(stack)
	out := make([]*bean, n)
	for j := 0; j < n; j++ {
		out[j] = stack[n-1-j]
	}
	return out
}

func indent(n int) string {
	return strings.Repeat("  ", n)
}

func (t *context) constructBeanList(list []*bean, stack []*bean) error {
	for _, bean := range list {
		if err := t.constructBean(bean, stack); err != nil {
			return err
		}
	}
	return nil
}

func (t *context) constructBean(bean *bean, stack []*bean) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("construct bean '%s' with type '%v' recovered with error %v", bean.name, bean.beanDef.classPtr, r)
		}
	}()

	if bean.lifecycle == BeanInitialized {
		return nil
	}

	initializer, hasConstructor := bean.obj.(InitializingBean)
	if verbose != nil {
		verbose.Printf("%sConstruct Bean '%s' with type '%v', hasFactory=%v, hasObject=%v, hasConstructor=%v\n", indent(len(stack)), bean.name, bean.beanDef.classPtr, bean.beenFactory != nil, bean.obj != nil, hasConstructor)
	}

	if bean.lifecycle == BeanConstructing {
		for i, b := range stack {
			if b == bean {
				return errors.Errorf("detected cycle dependency %s", getStackInfo(append(stack[i:], bean), "->"))
			}
		}
	}
	bean.lifecycle = BeanConstructing
	bean.ctorMu.Lock()
	defer bean.ctorMu.Unlock()

	for _, factoryDep := range bean.factoryDependencies {
		if err := t.constructBean(factoryDep.factory.bean, append(stack, bean)); err != nil {
			return err
		}
		if verbose != nil {
			verbose.Printf("%sFactoryDep (%v).Object()\n", indent(len(stack)+1), factoryDep.factory.factoryClassPtr)
		}
		product, created, err := factoryDep.factory.ctor()
		if err != nil {
			return errors.Errorf("factory ctor '%v' failed, %v", factoryDep.factory.factoryClassPtr, err)
		}
		if created {
			t.registry.addBean(factoryDep.factory.factoryBean.ObjectType(), product)
		}
		if err := factoryDep.injection(product); err != nil {
			return errors.Errorf("factory injection '%v' failed, %v", factoryDep.factory.factoryClassPtr, err)
		}
	}

	if err := t.constructBeanList(bean.dependencies, append(stack, bean)); err != nil {
		return err
	}

	// empty element bean produced by factory
	if bean.beenFactory != nil && bean.obj == nil {
		if err := t.constructBean(bean.beenFactory.bean, append(stack, bean)); err != nil {
			return err
		}
		if verbose != nil {
			verbose.Printf("%s(%v).Object()\n", indent(len(stack)), bean.beenFactory.factoryClassPtr)
		}
		if _, _, err := bean.beenFactory.ctor(); err != nil {
			return errors.Errorf("factory ctor '%v' failed, %v", bean.beenFactory.factoryClassPtr, err)
		}
		if bean.obj == nil {
			return errors.Errorf("bean '%v' was not created by factory ctor '%v'", bean, bean.beenFactory.factoryClassPtr)
		}
		return nil
	}

	if err := t.injectProperties(bean, stack); err != nil {
		return err
	}

	if hasConstructor {
		if verbose != nil {
			verbose.Printf("%sPostConstruct Bean '%s' with type '%v'\n", indent(len(stack)), bean.name, bean.beanDef.classPtr)
		}
		if err := initializer.PostConstruct(); err != nil {
			return errors.Errorf("post construct failed %s, %v", getStackInfo(reverseStack(append(stack, bean)), " required by "), err)
		}
	}

	t.addDisposable(bean)
	bean.lifecycle = BeanInitialized
	return nil
}

func (t *context) injectProperties(bean *bean, stack []*bean) error {
	if len(bean.beanDef.properties) == 0 {
		return nil
	}
	value := bean.valuePtr.Elem()
	for _, propertyDef := range bean.beanDef.properties {
		if verbose != nil {
			verbose.Printf("%sProperty '%s' default '%s'\n", indent(len(stack)+1), propertyDef.propertyName, propertyDef.defaultValue)
		}
		if err := propertyDef.inject(&value, t.properties); err != nil {
			return errors.Errorf("property '%s' injection in bean '%s' failed, %s, %v", propertyDef.propertyName, bean.name, getStackInfo(reverseStack(append(stack, bean)), " required by "), err)
		}
	}
	return nil
}

func (t *context) addDisposable(bean *bean) {
	if _, ok := bean.obj.(DisposableBean); ok {
		t.disposables = append(t.disposables, bean)
	}
}

func (t *context) postConstruct(lists ...[]*bean) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("post construct recover on error, %v", r)
		}
	}()

	for _, list := range lists {
		if err = t.constructBeanList(list, nil); err != nil {
			return err
		}
	}

	return nil
}

// destroy in reverse initialization order
func (t *context) Close() (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("context close recover error: %v", r)
		}
	}()

	var listErr []error
	t.closeOnce.Do(func() {
		for j := len(t.disposables) - 1; j >= 0; j-- {
			if err := t.destroyBean(t.disposables[j]); err != nil {
				listErr = append(listErr, err)
			}
		}
	})

	return multipleErr(listErr)
}

func (t *context) destroyBean(b *bean) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("destroy bean '%s' with type '%v' recovered with error: %v", b.name, b.beanDef.classPtr, r)
		}
	}()

	if b.lifecycle != BeanInitialized {
		return nil
	}

	b.lifecycle = BeanDestroying
	if verbose != nil {
		verbose.Printf("Destroy bean '%s' with type '%v'\n", b.name, b.beanDef.classPtr)
	}
	if dis, ok := b.obj.(DisposableBean); ok {
		if e := dis.Destroy(); e != nil {
			err = e
		} else {
			b.lifecycle = BeanDestroyed
		}
	}
	return
}

func multipleErr(err []error) error {
	switch len(err) {
	case 0:
		return nil
	case 1:
		return err[0]
	default:
		return errors.Errorf("multiple errors, %v", err)
	}
}

func (t *context) Properties() Properties {
	return t.properties
}

func (t *context) String() string {
	return fmt.Sprintf("Context [types=%d, destructors=%d]", len(t.core), len(t.disposables))
}
