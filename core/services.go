package core

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
)

// Singleton 把接口 T 绑定到实现 impl，全局共享一个实例
// impl 可以是实例、构造函数或 *di.Constructor。
//
//	app.Run(core.Singleton[UserStore](NewMemoryStore))
func Singleton[T any](impl any) Option {
	return bind[T](impl, di.AsGlobal())
}

// Scoped 把接口 T 绑定到实现 impl，每个容器一个实例
func Scoped[T any](impl any) Option {
	return bind[T](impl)
}

// Transient 把接口 T 绑定到实现 impl，每次解析都创建新实例
func Transient[T any](impl any) Option {
	return bind[T](impl, di.AsTransient())
}

func bind[T any](impl any, opts ...di.ServiceOption) Option {
	return func(rt *Runtime) error {
		id := di.TypeOf[T]()
		if impl == nil {
			return errors.Errorf("core: implementation of %v is nil", id)
		}
		all := make([]di.ServiceOption, 0, len(opts)+2)
		all = append(all, opts...)
		all = append(all, di.WithID(id))

		var produced reflect.Type
		switch t := impl.(type) {
		case *di.Constructor:
			produced = t.Type()
		default:
			it := reflect.TypeOf(impl)
			if it.Kind() != reflect.Func {
				if !it.AssignableTo(id) {
					return errors.Errorf("core: %v is not assignable to %v", it, id)
				}
				return di.Service(rt.Container, id, append(all, di.WithValue(impl))...)
			}
			if it.NumOut() > 0 {
				produced = it.Out(0)
			}
		}
		if produced != nil && !produced.AssignableTo(id) {
			return errors.Errorf("core: %v is not assignable to %v", produced, id)
		}
		return di.Service(rt.Container, impl, all...)
	}
}
