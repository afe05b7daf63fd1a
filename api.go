/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import (
	"io"
	"os"
	"reflect"
	"time"
)

type BeanLifecycle int32

const (
	BeanAllocated BeanLifecycle = iota
	BeanCreated
	BeanConstructing
	BeanInitialized
	BeanDestroying
	BeanDestroyed
)

func (t BeanLifecycle) String() string {
	switch t {
	case BeanAllocated:
		return "BeanAllocated"
	case BeanCreated:
		return "BeanCreated"
	case BeanConstructing:
		return "BeanConstructing"
	case BeanInitialized:
		return "BeanInitialized"
	case BeanDestroying:
		return "BeanDestroying"
	case BeanDestroyed:
		return "BeanDestroyed"
	default:
		return "BeanUnknown"
	}
}

var BeanClass = reflect.TypeOf((*Bean)(nil)).Elem()

type Bean interface {

	/**
	Returns name of the bean, that could be instance name with package or if instance implements NamedBean interface it would be result of BeanName() call.
	*/
	Name() string

	/**
	Returns additional names registered for the bean
	*/
	Aliases() []string

	/**
	Returns real type of the bean
	*/
	Class() reflect.Type

	/**
	Returns true if bean implements interface
	*/
	Implements(ifaceType reflect.Type) bool

	/**
	Returns initialized object of the bean, nil for factory products not created yet
	*/
	Object() interface{}

	/**
	Returns factory bean of exist only beans created by FactoryBean interface
	*/
	FactoryBean() (Bean, bool)

	/**
	Returns current bean lifecycle
	*/
	Lifecycle() BeanLifecycle

	/**
	Returns information about the bean
	*/
	String() string
}

var ContextClass = reflect.TypeOf((*Context)(nil)).Elem()

type Context interface {

	/**
	Destroy all beans that implement interface DisposableBean.
	*/
	Close() error

	/**
	Get list of all registered instances on creation of context with scope 'core'
	*/
	Core() []reflect.Type

	/**
	Gets obj by type, that is a pointer to the structure or interface.

	Example:
		package app
		type UserService interface {
		}

		list := ctx.Bean(reflect.TypeOf((*app.UserService)(nil)).Elem())
	*/
	Bean(typ reflect.Type) []Bean

	/**
	Lookup registered beans in context by name or alias.
	The name is the local package plus name of the type, for example '*sql.DB'
	Or if bean implements NamedBean interface the name of it.

	Example:
		beans := ctx.Lookup("*app.userService")
		beans := ctx.Lookup("dataSource")
	*/
	Lookup(name string) []Bean

	/**
	Inject fields in to the obj on runtime that is not part of core context.
	Does not add a new bean in to the core context, so this method is only for one-time use with scope 'runtime'.
	Does not initialize bean and does not destroy it.
	*/
	Inject(interface{}) error

	/**
	Returns context placeholder properties
	*/
	Properties() Properties

	/**
	Returns information about context
	*/
	String() string
}

/**
This interface used to provide pre-scanned instances in cloudglue.New method
*/
var ScannerClass = reflect.TypeOf((*Scanner)(nil)).Elem()

type Scanner interface {

	/**
	Returns pre-scanned instances
	*/
	Beans() []interface{}
}

/**
The bean object would be created after Object() function call.

ObjectType can be pointer to structure or interface.
*/

var FactoryBeanClass = reflect.TypeOf((*FactoryBean)(nil)).Elem()

type FactoryBean interface {

	/**
	returns an object produced by the factory, and this is the object that will be used in context, but not going to be a bean
	*/
	Object() (interface{}, error)

	/**
	returns the type of object that this FactoryBean produces
	*/
	ObjectType() reflect.Type

	/**
	returns the bean name of object that this FactoryBean produces or empty string if name not defined
	*/
	ObjectName() string

	/**
	denotes if the object produced by this FactoryBean is a singleton
	*/
	Singleton() bool
}

var InitializingBeanClass = reflect.TypeOf((*InitializingBean)(nil)).Elem()

type InitializingBean interface {

	/**
	Runs this method automatically after initializing and injecting context
	*/
	PostConstruct() error
}

var DisposableBeanClass = reflect.TypeOf((*DisposableBean)(nil)).Elem()

type DisposableBean interface {

	/**
	During close context would be called for each bean in the core.
	*/
	Destroy() error
}

var NamedBeanClass = reflect.TypeOf((*NamedBean)(nil)).Elem()

type NamedBean interface {

	/**
	Returns bean name
	*/
	BeanName() string
}

var OrderedBeanClass = reflect.TypeOf((*OrderedBean)(nil)).Elem()

type OrderedBean interface {

	/**
	Returns bean order
	*/
	BeanOrder() int
}

/**
Bean factory post processor runs after all beans were scanned and properties loaded, but before any injection.
It can inspect scanned beans and replace them.

Post processors receive only 'value' properties and PostConstruct call before they run, 'inject' fields are not wired.
Post processors implementing OrderedBean run in ascending order.
*/

var BeanFactoryPostProcessorClass = reflect.TypeOf((*BeanFactoryPostProcessor)(nil)).Elem()

type BeanFactoryPostProcessor interface {

	PostProcessBeanFactory(registry BeanRegistry) error
}

/**
Mutable view of the scanned beans given to BeanFactoryPostProcessor.
*/

type BeanRegistry interface {

	/**
	Returns context placeholder properties, loaded at this stage
	*/
	Properties() Properties

	/**
	Returns scanned beans assignable to the type, including products of factory beans that are not created yet
	*/
	BeansOfType(typ reflect.Type) []Bean

	/**
	Returns scanned beans registered with the name or alias
	*/
	BeansByName(name string) []Bean

	/**
	Replaces the scanned bean with the new object keeping the name, aliases and qualifier of the target.
	Displaced object would be closed if it implements io.Closer.
	*/
	Replace(target Bean, obj interface{}) (Bean, error)

	/**
	Registers new singleton in context
	*/
	Register(name string, obj interface{}) (Bean, error)

	/**
	Registers alias for all beans with the name
	*/
	Alias(name, alias string) error
}

/**
Property source is serving as a property placeholder from YAML content or map.
*/

var PropertySourceClass = reflect.TypeOf((*PropertySource)(nil))

type PropertySource struct {

	/**
	YAML document with properties
	*/
	Content string

	/**
	Map of properties
	*/
	Map map[string]interface{}
}

/**
Property Resolver interface used to enhance the Properties interface with additional sources of properties.
*/

var PropertyResolverClass = reflect.TypeOf((*PropertyResolver)(nil)).Elem()

type PropertyResolver interface {

	/**
	Priority in property resolving, it could be lower or higher than default one.
	*/
	Priority() int

	/**
	Resolves the property
	*/
	GetProperty(key string) (value string, ok bool)
}

/**
Merged properties of the context, used as a source of values for placeholder properties.

Internal property storage has default priority of property resolver.
The higher priority look first.
*/

const DefaultPropertyResolverPriority = 100

var PropertiesClass = reflect.TypeOf((*Properties)(nil)).Elem()

type Properties interface {
	PropertyResolver

	/**
	Register additional property resolver. It would be sorted by priority.
	*/
	Register(PropertyResolver)
	PropertyResolvers() []PropertyResolver

	/**
	Loads properties from map
	*/
	LoadMap(source map[string]interface{})

	/**
	Loads properties from YAML input stream
	*/
	Load(reader io.Reader) error

	/**
	Saves properties to output stream
	*/
	Save(writer io.Writer) (n int, err error)

	/**
	Dumps all properties to UTF-8 string
	*/
	Dump() string

	/**
	Gets length of the properties
	*/
	Len() int

	/**
	Gets all keys associated with properties
	*/
	Keys() []string

	/**
	Return copy of properties as Map
	*/
	Map() map[string]string

	/**
	Checks if property contains the key
	*/
	Contains(key string) bool

	/**
	Gets property value and true if exist
	*/
	Get(key string) (value string, ok bool)

	GetString(key, def string) string
	GetBool(key string, def bool) bool
	GetInt(key string, def int) int
	GetFloat(key string, def float32) float32
	GetDouble(key string, def float64) float64
	GetDuration(key string, def time.Duration) time.Duration
	GetFileMode(key string, def os.FileMode) os.FileMode

	// properties conversion error handler
	GetErrorHandler() func(string, error)
	SetErrorHandler(onError func(string, error))

	/**
	Sets property value
	*/
	Set(key string, value string)

	/**
	Remove property by key
	*/
	Remove(key string) bool

	/**
	Delete all properties
	*/
	Clear()
}
