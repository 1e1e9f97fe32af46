package di

import (
	"io"
	"reflect"

	"github.com/pkg/errors"
)

// resolvePath 记录一次解析调用链上正在构建的服务
type resolvePath []pathEntry

type pathEntry struct {
	md *ServiceMetadata
	id any
}

func (p resolvePath) contains(md *ServiceMetadata) bool {
	for _, e := range p {
		if e.md == md {
			return true
		}
	}
	return false
}

func (p resolvePath) ids(last any) []any {
	ids := make([]any, 0, len(p)+1)
	for _, e := range p {
		ids = append(ids, e.id)
	}
	return append(ids, last)
}

// produce 返回 md 的值，必要时通过 factory 或构造器构建
//
// 构建期间不持有任何容器锁。值在应用属性处理器之前写回元数据，
// 因此属性处理器中对同一服务的再次请求会拿到这个（尚未补全的）值。
// 并发构建时先写入者胜出，落败方的结果被丢弃。
func (c *Container) produce(md *ServiceMetadata, id any, path resolvePath) (any, error) {
	md.mu.Lock()
	value, ctor, factory, scope := md.value, md.ctor, md.factory, md.scope
	md.mu.Unlock()

	if value != empty {
		return value, nil
	}
	if path.contains(md) {
		return nil, &CircularDependencyError{Path: path.ids(id)}
	}
	path = append(path, pathEntry{md: md, id: id})

	var (
		v   any
		err error
	)
	switch {
	case factory != nil:
		v, err = c.callFactory(factory, id, path)
	case ctor != nil:
		v, err = c.construct(ctor, path)
	default:
		return nil, &CannotInstantiateValueError{ID: id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "di: resolve %s", describeID(id))
	}
	if v == nil {
		return nil, &CannotInstantiateValueError{ID: id}
	}

	stored := false
	if scope != ScopeTransient {
		md.mu.Lock()
		if md.value != empty {
			winner := md.value
			md.mu.Unlock()
			return winner, nil
		}
		md.value = v
		stored = true
		md.mu.Unlock()
	}

	if ctor != nil {
		if err := c.applyProperties(ctor.Type(), v, path); err != nil {
			if stored {
				md.mu.Lock()
				md.value = empty
				md.mu.Unlock()
			}
			return nil, errors.Wrapf(err, "di: resolve %s", describeID(id))
		}
	}
	return v, nil
}

func (c *Container) callFactory(f any, id any, path resolvePath) (any, error) {
	switch fn := f.(type) {
	case FactoryFunc:
		return fn(c, id)
	case FactoryMethod:
		return c.callFactoryMethod(fn, id, path)
	case *FactoryMethod:
		return c.callFactoryMethod(*fn, id, path)
	}
	return nil, &InvalidServiceOptionsError{Reason: "unsupported factory " + reflect.TypeOf(f).String()}
}

// callFactoryMethod 解析工厂服务后调用其方法
// 工厂服务解析失败时，如果它是可构建的类型，则以零值参数直接构建一个临时实例。
func (c *Container) callFactoryMethod(fm FactoryMethod, id any, path resolvePath) (any, error) {
	owner, err := c.get(fm.Service, path)
	if err != nil {
		var ctor *Constructor
		switch s := fm.Service.(type) {
		case *Constructor:
			ctor = s
		case reflect.Type:
			if s.Kind() == reflect.Pointer && s.Elem().Kind() == reflect.Struct {
				ctor = &Constructor{typ: s}
			}
		}
		if ctor == nil {
			return nil, err
		}
		if owner, err = ctor.callZero(c); err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, &CannotInstantiateValueError{ID: fm.Service}
		}
	}

	m := reflect.ValueOf(owner).MethodByName(fm.Method)
	if !m.IsValid() {
		return nil, errors.Errorf("di: factory method %s not found on %T", fm.Method, owner)
	}
	mt := m.Type()
	args := make([]reflect.Value, 0, mt.NumIn())
	for i := 0; i < mt.NumIn(); i++ {
		switch mt.In(i) {
		case containerPtrType:
			args = append(args, reflect.ValueOf(c))
		case anyType:
			args = append(args, reflect.ValueOf(&id).Elem())
		default:
			return nil, errors.Errorf("di: factory method %T.%s: unsupported parameter %s", owner, fm.Method, mt.In(i))
		}
	}
	switch {
	case mt.NumOut() == 1:
	case mt.NumOut() == 2 && mt.Out(1) == errorType:
	default:
		return nil, errors.Errorf("di: factory method %T.%s must return (T) or (T, error)", owner, fm.Method)
	}

	out := m.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	if isNilValue(out[0]) {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// construct 解析构造参数并调用构造器
func (c *Container) construct(ctor *Constructor, path resolvePath) (any, error) {
	handlers := c.handlersSnapshot()
	args := make([]reflect.Value, ctor.NumParams())
	for i := range args {
		v, err := c.resolveParam(handlers, ctor, i, path)
		if err != nil {
			return nil, errors.Wrapf(err, "di: parameter %d of %s", i, typeName(ctor.Type()))
		}
		if args[i], err = assignValue(v, ctor.Param(i)); err != nil {
			return nil, errors.Wrapf(err, "di: parameter %d of %s", i, typeName(ctor.Type()))
		}
	}
	return ctor.call(c, args)
}

// resolveParam 依次尝试：处理器（含父类型回退）、类型提供者给出的标识、零值
func (c *Container) resolveParam(handlers []Handler, ctor *Constructor, index int, path resolvePath) (any, error) {
	if h, ok := findParamHandler(handlers, ctor.Type(), index); ok {
		return h.resolve(c, path)
	}
	id, ok := c.registry.provider.ParameterType(ctor, index)
	if !ok || id == nil || isPrimitiveLike(id) {
		return nil, nil
	}
	return c.get(id, path)
}

func (c *Container) applyProperties(target reflect.Type, obj any, path resolvePath) error {
	for _, h := range propertyHandlers(c.handlersSnapshot(), target) {
		v, err := h.resolve(c, path)
		if err != nil {
			return errors.Wrapf(err, "di: property %s.%s", typeName(target), h.Property)
		}
		if v == nil {
			continue
		}
		if err := setProperty(obj, h.Property, v); err != nil {
			return err
		}
	}
	return nil
}

// setProperty 设置 obj 上的导出字段，obj 必须是结构体指针
func setProperty(obj any, name string, v any) error {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return errors.Errorf("di: cannot set %s on nil %T", name, obj)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errors.Errorf("di: cannot set %s on non-struct %T", name, obj)
	}
	f := rv.FieldByName(name)
	if !f.IsValid() {
		return errors.Errorf("di: %T has no field %s", obj, name)
	}
	if !f.CanSet() {
		return errors.Errorf("di: field %T.%s is not settable", obj, name)
	}
	fv, err := assignValue(v, f.Type())
	if err != nil {
		return errors.Wrapf(err, "di: field %T.%s", obj, name)
	}
	f.Set(fv)
	return nil
}

// assignValue 将 v 转换为可赋值给 t 的 reflect.Value，nil 对应零值
func assignValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if isNumberKind(rv.Kind()) && isNumberKind(t.Kind()) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf("di: value of type %T is not assignable to %s", v, typeName(t))
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// runCleanup 调用值的清理钩子：Dispose()、Dispose() error 或 io.Closer
// 钩子中的 panic 会被转换为错误。
func runCleanup(v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("di: cleanup panicked: %v", r)
		}
	}()
	switch d := v.(type) {
	case interface{ Dispose() error }:
		return d.Dispose()
	case interface{ Dispose() }:
		d.Dispose()
	case io.Closer:
		return d.Close()
	}
	return nil
}
