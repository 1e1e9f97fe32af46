package di

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// ServiceOption 修改 Service 生成的注册选项
type ServiceOption func(o *ServiceOptions)

// WithID 指定服务标识
func WithID(id any) ServiceOption {
	return func(o *ServiceOptions) { o.ID = id }
}

// WithFactory 使用工厂函数构建服务
func WithFactory(factory any) ServiceOption {
	return func(o *ServiceOptions) { o.Factory = factory }
}

// WithFactoryMethod 使用另一个服务上的方法构建服务
func WithFactoryMethod(service any, method string) ServiceOption {
	return func(o *ServiceOptions) { o.Factory = FactoryMethod{Service: service, Method: method} }
}

// WithValue 注册预先构建好的值
func WithValue(v any) ServiceOption {
	return func(o *ServiceOptions) { o.Value = v }
}

// AsMultiple 作为 multiple 服务注册
func AsMultiple() ServiceOption {
	return func(o *ServiceOptions) { o.Multiple = true }
}

// AsGlobal 作为 singleton 注册到默认容器
func AsGlobal() ServiceOption {
	return func(o *ServiceOptions) { o.Scope = ScopeSingleton }
}

// AsTransient 每次请求都重新构建
func AsTransient() ServiceOption {
	return func(o *ServiceOptions) { o.Scope = ScopeTransient }
}

// AsEager 注册后立即构建
func AsEager() ServiceOption {
	return func(o *ServiceOptions) { o.Eager = true }
}

// Service 声明一个服务
//
// target 可以是构造函数、*Constructor、结构体指针类型（reflect.Type），
// 也可以直接是服务标识（字符串、Token、其他类型），此时需要配合 WithFactory 或 WithValue。
//
// 示例：
//
//	di.Service(c, NewEngine)
//	di.Service(c, NewCar, di.AsTransient())
//	di.Service(c, "config.name", di.WithValue("demo"))
func Service(c *Container, target any, opts ...ServiceOption) error {
	if target == nil {
		return &InvalidServiceOptionsError{Reason: "service target is nil"}
	}
	var o ServiceOptions
	switch t := target.(type) {
	case *Constructor:
		o.Type = t
	case reflect.Type:
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			o.Type = &Constructor{typ: t}
		} else {
			o.ID = t
		}
	default:
		if reflect.TypeOf(target).Kind() == reflect.Func {
			ctor, err := newConstructor(target)
			if err != nil {
				return err
			}
			o.Type = ctor
		} else {
			o.ID = target
		}
	}
	for _, opt := range opts {
		opt(&o)
	}
	return c.Set(o)
}

// MustService 同 Service，失败时 panic
func MustService(c *Container, target any, opts ...ServiceOption) {
	if err := Service(c, target, opts...); err != nil {
		panic(err)
	}
}

// InjectProperty 为 target 的字段 field 注册属性处理器
//
// id 省略时由 TypeProvider 根据字段类型推断；id 可以是 LazyID，
// 在注入时才求值，用于循环引用。
func InjectProperty(c *Container, target reflect.Type, field string, id ...any) error {
	var explicit any
	if len(id) > 0 {
		explicit = id[0]
	}
	return injectProperty(c, target, field, explicit, false)
}

func injectProperty(c *Container, target reflect.Type, field string, id any, optional bool) error {
	if target == nil || field == "" {
		return &InvalidServiceOptionsError{Reason: "property injection needs a target type and a field name"}
	}
	if target.Kind() == reflect.Struct {
		target = reflect.PointerTo(target)
	}
	if id == nil {
		captured, ok := c.registry.provider.PropertyType(target, field)
		if !ok || isGenericType(captured) {
			return &CannotInjectValueError{Target: target, Property: field, Index: -1}
		}
		id = captured
	} else if isGenericType(id) {
		return &CannotInjectValueError{Target: target, Property: field, Index: -1}
	}

	return c.RegisterHandler(identifierHandler(Handler{Target: target, Property: field, Index: -1}, id, optional))
}

// InjectParam 为构造器的第 index 个参数注册处理器
// id 为 nil 时由 TypeProvider 根据参数类型推断。
func InjectParam(c *Container, ctor *Constructor, index int, id any) error {
	if ctor == nil || index < 0 || index >= ctor.NumParams() {
		return &InvalidServiceOptionsError{Reason: "parameter index out of range"}
	}
	if id == nil {
		captured, ok := c.registry.provider.ParameterType(ctor, index)
		if !ok || isGenericType(captured) {
			return &CannotInjectValueError{Target: ctor.Type(), Index: index}
		}
		id = captured
	} else if isGenericType(id) {
		return &CannotInjectValueError{Target: ctor.Type(), Index: index}
	}
	return c.RegisterHandler(identifierHandler(Handler{Target: ctor.Type(), Index: index}, id, false))
}

// InjectTagged 按结构体字段上的 di 标签批量注册属性处理器
//
// 标签格式：
//
//	di:""            按字段类型注入
//	di:"name"        按字符串标识注入
//	di:"name,?"      可选，服务不存在时保留字段原值
//	di:"?" / di:",optional"
func InjectTagged(c *Container, ctor *Constructor) error {
	if ctor == nil {
		return &InvalidServiceOptionsError{Reason: "constructor is nil"}
	}
	st := ctor.Type()
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return errors.Errorf("di: %s is not a struct type", typeName(ctor.Type()))
	}

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		tag, ok := field.Tag.Lookup("di")
		if !ok {
			continue
		}
		if !field.IsExported() {
			return errors.Errorf("di: field %s.%s is tagged but not exported", typeName(st), field.Name)
		}
		name, optional := parseTag(tag)
		var id any
		if name != "" {
			id = name
		}
		if err := injectProperty(c, ctor.Type(), field.Name, id, optional); err != nil {
			return err
		}
	}
	return nil
}

// parseTag 解析 "name,option1,option2"
func parseTag(tag string) (name string, optional bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	if name == "?" || name == "optional" {
		return "", true
	}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "optional" || part == "?" {
			optional = true
		}
	}
	return name, optional
}

func resolveIdentifier(c *Container, id any, path resolvePath) (any, error) {
	if lazy, ok := id.(LazyID); ok {
		resolved, err := lazy.resolve()
		if err != nil {
			return nil, err
		}
		id = resolved
	}
	return c.get(id, path)
}
