// Package di 提供多容器的依赖注入引擎
//
// 服务按标识（reflect.Type、*Token 或字符串）注册到容器中，
// 通过 Get/GetMany 惰性构建并按作用域缓存：
//
//   - ScopeContainer 每个容器一个实例
//   - ScopeSingleton 全部容器共享，存放在默认容器中
//   - ScopeTransient 每次请求一个新实例
//
// 基本用法：
//
//	r := di.NewRegistry()
//	c := r.Default()
//	di.Service(c, NewEngine)
//	di.Service(c, NewCar)
//	car, err := di.ResolveType[*Car](c)
package di

import (
	"reflect"

	"github.com/pkg/errors"
)

// Resolve 解析 id 并断言为 T
func Resolve[T any](c *Container, id any) (T, error) {
	var zero T
	v, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("di: service %s is %T, not %s", describeID(id), v, typeName(TypeOf[T]()))
	}
	return t, nil
}

// MustResolve 同 Resolve，失败时 panic
func MustResolve[T any](c *Container, id any) T {
	v, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveType 以 T 的类型作为标识解析
func ResolveType[T any](c *Container) (T, error) {
	return Resolve[T](c, TypeOf[T]())
}

// ResolveToken 按 Token 解析
func ResolveToken[T any](c *Container, tok *Token[T]) (T, error) {
	return Resolve[T](c, tok)
}

// ResolveMany 解析 multiple 标识下的全部实例
func ResolveMany[T any](c *Container, id any) ([]T, error) {
	vs, err := c.GetMany(id)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		t, ok := v.(T)
		if !ok {
			return nil, errors.Errorf("di: member of %s is %T, not %s", describeID(id), v, typeName(TypeOf[T]()))
		}
		out = append(out, t)
	}
	return out, nil
}

// Inject 通过指针注入实例到目标变量
//
//	var svc *UserService
//	c.Inject(&svc)
//	c.Inject(&host, DBHost)
func (c *Container) Inject(target any, id ...any) error {
	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Pointer || tv.IsNil() {
		return errors.Errorf("di: inject target must be a non-nil pointer, got %T", target)
	}
	elem := tv.Elem()
	var key any = elem.Type()
	if len(id) > 0 && id[0] != nil {
		key = id[0]
	}
	v, err := c.Get(key)
	if err != nil {
		return errors.Wrap(err, "di: inject")
	}
	fv, err := assignValue(v, elem.Type())
	if err != nil {
		return err
	}
	elem.Set(fv)
	return nil
}

// MustInject 通过指针注入实例，失败时 panic
func (c *Container) MustInject(target any, id ...any) {
	if err := c.Inject(target, id...); err != nil {
		panic(err)
	}
}

// Invoke 调用 fn，参数按类型从容器解析
// fn 可以接收 *Container，返回值中的 error 会被返回。
func Invoke(c *Container, fn any) error {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return errors.Errorf("di: invoke target must be a function, got %T", fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return errors.Errorf("di: variadic function %v is not supported", ft)
	}
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		pt := ft.In(i)
		if pt == containerPtrType {
			args[i] = reflect.ValueOf(c)
			continue
		}
		v, err := c.Get(pt)
		if err != nil {
			return errors.Wrapf(err, "di: invoke parameter %d", i)
		}
		if args[i], err = assignValue(v, pt); err != nil {
			return err
		}
	}
	for _, out := range fv.Call(args) {
		if out.Type() == errorType && !out.IsNil() {
			return out.Interface().(error)
		}
	}
	return nil
}
