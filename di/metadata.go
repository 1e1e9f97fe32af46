package di

import (
	"fmt"
	"reflect"
	"sync"
)

// ScopeType 定义了服务的生命周期
type ScopeType int

const (
	// ScopeContainer 每个容器一个实例（默认）
	ScopeContainer ScopeType = iota
	// ScopeSingleton 全进程一个实例，始终存放在默认容器中
	ScopeSingleton
	// ScopeTransient 每次请求创建一个新实例，从不缓存
	ScopeTransient
)

// String 返回作用域名称
func (s ScopeType) String() string {
	switch s {
	case ScopeContainer:
		return "container"
	case ScopeSingleton:
		return "singleton"
	case ScopeTransient:
		return "transient"
	default:
		return fmt.Sprintf("ScopeType(%d)", int(s))
	}
}

// emptyValue 表示尚未构建（或 transient 从不缓存）的值
type emptyValue struct{}

var empty any = emptyValue{}

// FactoryFunc 工厂函数，接收发起请求的容器和被请求的标识
type FactoryFunc func(c *Container, id any) (any, error)

// FactoryMethod 指向另一个服务上的工厂方法
//
// Service 先通过 Get 解析；如果解析失败且 Service 是 reflect.Type 或 *Constructor，
// 则直接以零参数方式构建。Method 的签名应为 func(*Container, any) any
// 或 func(*Container, any) (any, error)。
type FactoryMethod struct {
	Service any
	Method  string
}

// ServiceOptions 描述一次 Set 调用
type ServiceOptions struct {
	// ID 服务标识，为空时使用 Type 的产出类型
	ID any
	// Scope 生命周期，默认 ScopeContainer
	Scope ScopeType
	// Type 基于构造器的构建方式
	Type *Constructor
	// Factory 为 FactoryFunc、func(*Container, any) (any, error) 或 FactoryMethod
	Factory any
	// Value 预先构建好的值，nil 表示未提供
	Value any
	// Multiple 多个实现共享同一标识，通过 GetMany 读取
	Multiple bool
	// Eager 注册后立即构建
	Eager bool
}

// ServiceMetadata 描述一个已注册服务
type ServiceMetadata struct {
	mu           sync.Mutex
	id           any
	scope        ScopeType
	ctor         *Constructor
	factory      any
	value        any
	multiple     bool
	eager        bool
	referencedBy map[any]struct{}
	// borrowed 值来自默认容器的预设值，清理时只丢弃引用
	borrowed     bool
}

func newMetadata(id any, opts ServiceOptions) *ServiceMetadata {
	md := &ServiceMetadata{
		id:           id,
		scope:        opts.Scope,
		ctor:         opts.Type,
		factory:      normalizeFactory(opts.Factory),
		value:        empty,
		multiple:     opts.Multiple,
		eager:        opts.Eager,
		referencedBy: make(map[any]struct{}),
	}
	if opts.Value != nil {
		md.value = opts.Value
	}
	return md
}

// merge 用新选项覆盖已有元数据（原地修改，持有引用的调用方可以看到更新）
// 未提供的构建字段回到默认值，已缓存的值被丢弃。
func (m *ServiceMetadata) merge(opts ServiceOptions) {
	m.scope = opts.Scope
	m.ctor = opts.Type
	m.factory = normalizeFactory(opts.Factory)
	m.value = empty
	if opts.Value != nil {
		m.value = opts.Value
	}
	m.eager = opts.Eager
	m.borrowed = false
}

// clone 复制元数据，值重置为 EMPTY
// 没有构建方式的预设值无法重新构建，克隆直接共享这个值。
func (m *ServiceMetadata) clone() *ServiceMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := &ServiceMetadata{
		id:           m.id,
		scope:        m.scope,
		ctor:         m.ctor,
		factory:      m.factory,
		value:        empty,
		multiple:     m.multiple,
		eager:        m.eager,
		referencedBy: make(map[any]struct{}, len(m.referencedBy)+1),
	}
	if m.ctor == nil && m.factory == nil && m.value != empty {
		cp.value = m.value
		cp.borrowed = true
	}
	for k := range m.referencedBy {
		cp.referencedBy[k] = struct{}{}
	}
	return cp
}

// ID 返回服务标识（multiple 注册时为生成的 Token）
func (m *ServiceMetadata) ID() any { return m.id }

// Scope 返回生命周期
func (m *ServiceMetadata) Scope() ScopeType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scope
}

// Multiple 报告是否为 multiple 注册
func (m *ServiceMetadata) Multiple() bool { return m.multiple }

// Eager 报告是否在注册时立即构建
func (m *ServiceMetadata) Eager() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eager
}

// HasValue 报告值是否已构建
func (m *ServiceMetadata) HasValue() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value != empty
}

// ReferencedBy 返回引用该元数据的容器 id
func (m *ServiceMetadata) ReferencedBy() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]any, 0, len(m.referencedBy))
	for id := range m.referencedBy {
		ids = append(ids, id)
	}
	return ids
}

// Type 返回服务的产出类型，没有构造器时为 nil
func (m *ServiceMetadata) Type() reflect.Type {
	m.mu.Lock()
	ctor := m.ctor
	m.mu.Unlock()
	if ctor == nil {
		return nil
	}
	return ctor.Type()
}

func normalizeFactory(f any) any {
	switch fn := f.(type) {
	case func(*Container, any) (any, error):
		return FactoryFunc(fn)
	case func(*Container, any) any:
		return FactoryFunc(func(c *Container, id any) (any, error) {
			return fn(c, id), nil
		})
	case func() any:
		return FactoryFunc(func(*Container, any) (any, error) {
			return fn(), nil
		})
	default:
		return f
	}
}

// multiEntry multiple 标识的掩码列表
type multiEntry struct {
	scope  ScopeType
	tokens []*Token[any]
}
