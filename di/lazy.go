package di

import (
	"sync"

	"github.com/pkg/errors"
)

// Lazy 延迟解析的服务引用，第一次成功读取后缓存结果
//
// 用于打破构造期的循环依赖：构造函数只持有 Lazy，真正使用时才解析。
type Lazy[T any] struct {
	c  *Container
	id any

	mu    sync.Mutex
	done  bool
	value T
}

// LazyOf 创建 id 的延迟引用
func LazyOf[T any](c *Container, id any) *Lazy[T] {
	return &Lazy[T]{c: c, id: id}
}

// ID 返回被引用的服务标识
func (l *Lazy[T]) ID() any { return l.id }

// Value 解析并返回服务，失败不会被缓存
func (l *Lazy[T]) Value() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.value, nil
	}
	v, err := Resolve[T](l.c, l.id)
	if err != nil {
		var zero T
		return zero, err
	}
	l.value, l.done = v, true
	return v, nil
}

// LazyID 延迟求值的服务标识，在注入时才调用
// 适用于声明时对方类型尚不可用的循环引用。
type LazyID func() any

// Deferred 包装一个返回服务标识的函数
func Deferred(fn func() any) LazyID {
	return LazyID(fn)
}

func (l LazyID) resolve() (any, error) {
	if l == nil {
		return nil, errors.New("di: deferred identifier is nil")
	}
	id := l()
	if id == nil {
		return nil, errors.New("di: deferred identifier resolved to nil")
	}
	return id, nil
}
