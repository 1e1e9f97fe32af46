package di

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/gocrud/ioc/logging"
)

// ResetStrategy 定义 Reset 的行为
type ResetStrategy int

const (
	// ResetValue 仅丢弃已构建的值，注册保留，之后的 Get 会重新构建
	ResetValue ResetStrategy = iota
	// ResetServices 丢弃值并清空全部注册，容器回到刚创建的状态
	ResetServices
)

// Container 是依赖注入容器（解析引擎）
//
// 每个容器持有自己的元数据表、multiple 掩码表和处理器列表。
// singleton 服务始终存放在所属 Registry 的默认容器中。
type Container struct {
	id       any
	registry *Registry

	mu       sync.RWMutex
	metadata map[any]*ServiceMetadata
	multi    map[any]*multiEntry
	handlers []Handler

	disposed atomic.Bool
}

func newContainer(id any, r *Registry, handlers []Handler) *Container {
	hs := make([]Handler, len(handlers))
	copy(hs, handlers)
	return &Container{
		id:       id,
		registry: r,
		metadata: make(map[any]*ServiceMetadata),
		multi:    make(map[any]*multiEntry),
		handlers: hs,
	}
}

// ID 返回容器 id
func (c *Container) ID() any { return c.id }

// Registry 返回容器所属的注册表
func (c *Container) Registry() *Registry { return c.registry }

// IsDefault 报告是否为注册表的默认容器
func (c *Container) IsDefault() bool { return c.registry.Default() == c }

// Disposed 报告容器是否已被释放
func (c *Container) Disposed() bool { return c.disposed.Load() }

func (c *Container) logger() logging.Logger { return c.registry.Logger() }

// Has 报告 id 是否在本容器中注册（包括 multiple 标识）
func (c *Container) Has(id any) bool {
	if c.disposed.Load() || !validID(id) {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.metadata[id]; ok {
		return true
	}
	_, ok := c.multi[id]
	return ok
}

// Metadata 返回本容器中 id 对应的元数据（诊断用）
func (c *Container) Metadata(id any) (*ServiceMetadata, bool) {
	md := c.lookup(id)
	return md, md != nil
}

func (c *Container) lookup(id any) *ServiceMetadata {
	if !validID(id) {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metadata[id]
}

func (c *Container) lookupMulti(id any) *multiEntry {
	if !validID(id) {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.multi[id]
}

// multiTokens 复制 id 对应的掩码 Token 列表
func (c *Container) multiTokens(id any) ([]*Token[any], ScopeType, bool) {
	if !validID(id) {
		return nil, 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.multi[id]
	if !ok {
		return nil, 0, false
	}
	tokens := make([]*Token[any], len(entry.tokens))
	copy(tokens, entry.tokens)
	return tokens, entry.scope, true
}

func (c *Container) handlersSnapshot() []Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hs := make([]Handler, len(c.handlers))
	copy(hs, c.handlers)
	return hs
}

// Get 解析 id 对应的服务实例
//
// 默认容器中的 singleton 优先；否则使用本容器的注册。
// 子容器第一次访问默认容器中的非 singleton 服务时，会先把元数据克隆到本地
// 再构建，递归中的再次访问将命中本地克隆。
func (c *Container) Get(id any) (any, error) {
	return c.get(id, nil)
}

func (c *Container) get(id any, path resolvePath) (any, error) {
	if c.disposed.Load() {
		return nil, ErrContainerDisposed
	}
	if !validID(id) {
		return nil, &ServiceNotFoundError{ID: id}
	}

	def := c.registry.Default()
	global := def.lookup(id)
	local := global
	if c != def {
		local = c.lookup(id)
	}

	var md *ServiceMetadata
	if global != nil && global.Scope() == ScopeSingleton {
		md = global
	} else if local != nil {
		md = local
	}

	if md != nil {
		if md.multiple {
			return nil, &MultipleServiceError{ID: id}
		}
		return c.produce(md, id, path)
	}

	if c != def && global != nil {
		cl := global.clone()
		cl.referencedBy[c.id] = struct{}{}
		c.mu.Lock()
		if existing, ok := c.metadata[id]; ok {
			cl = existing
		} else {
			c.metadata[id] = cl
		}
		c.mu.Unlock()
		return c.produce(cl, id, path)
	}

	if c.lookupMulti(id) != nil || def.lookupMulti(id) != nil {
		return nil, &MultipleServiceError{ID: id}
	}
	return nil, &ServiceNotFoundError{ID: id}
}

// GetMany 解析 multiple 标识下的全部实例，顺序与注册顺序一致
func (c *Container) GetMany(id any) ([]any, error) {
	return c.getMany(id, nil)
}

func (c *Container) getMany(id any, path resolvePath) ([]any, error) {
	if c.disposed.Load() {
		return nil, ErrContainerDisposed
	}

	// 默认容器中的非 singleton 条目对子容器不可见
	def := c.registry.Default()
	gTokens, gScope, gOK := def.multiTokens(id)
	lTokens, _, lOK := c.multiTokens(id)

	var tokens []*Token[any]
	switch {
	case gOK && gScope == ScopeSingleton:
		tokens = gTokens
	case lOK:
		tokens = lTokens
	default:
		return nil, &ServiceNotFoundError{ID: id}
	}

	values := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		v, err := c.get(tok, path)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Set 注册或更新服务
//
// 从非默认容器注册的 singleton 会转交给默认容器。
// Multiple 注册会生成新的 Token 作为存储标识，原 id 仅记录在掩码表中。
func (c *Container) Set(opts ServiceOptions) error {
	if c.disposed.Load() {
		return ErrContainerDisposed
	}
	if opts.Scope == ScopeSingleton && !c.IsDefault() {
		return c.registry.Default().Set(opts)
	}

	id := opts.ID
	if id == nil {
		if opts.Type == nil {
			return &InvalidServiceOptionsError{Reason: "id is required when no type is given"}
		}
		id = opts.Type.Type()
	}
	if !validID(id) {
		return &InvalidServiceOptionsError{Reason: "id must be a comparable value"}
	}
	switch normalizeFactory(opts.Factory).(type) {
	case nil, FactoryFunc, FactoryMethod, *FactoryMethod:
	default:
		return &InvalidServiceOptionsError{Reason: "unsupported factory " + reflect.TypeOf(opts.Factory).String()}
	}

	var md *ServiceMetadata
	c.mu.Lock()
	if opts.Multiple {
		tok := newMaskToken(id)
		entry, ok := c.multi[id]
		if !ok {
			entry = &multiEntry{}
			c.multi[id] = entry
		}
		entry.scope = opts.Scope
		entry.tokens = append(entry.tokens, tok)

		md = newMetadata(tok, opts)
		md.multiple = false
		c.metadata[tok] = md
	} else if existing, ok := c.metadata[id]; ok {
		existing.mu.Lock()
		existing.merge(opts)
		existing.mu.Unlock()
		md = existing
	} else {
		md = newMetadata(id, opts)
		c.metadata[id] = md
	}
	md.mu.Lock()
	md.referencedBy[c.id] = struct{}{}
	eager := md.eager && md.scope != ScopeTransient
	md.mu.Unlock()
	c.mu.Unlock()

	c.logger().Debug("service registered",
		logging.Field{Key: "container", Value: c.id},
		logging.Field{Key: "service", Value: describeID(id)},
		logging.Field{Key: "scope", Value: opts.Scope.String()},
		logging.Field{Key: "multiple", Value: opts.Multiple})

	if eager {
		if _, err := c.Get(md.id); err != nil {
			return err
		}
	}
	return nil
}

// SetValue 以预先构建好的值注册服务
func (c *Container) SetValue(id, value any) error {
	return c.Set(ServiceOptions{ID: id, Value: value})
}

// Remove 删除服务注册，已构建的值会先被清理
func (c *Container) Remove(ids ...any) error {
	if c.disposed.Load() {
		return ErrContainerDisposed
	}
	var removed []*ServiceMetadata
	c.mu.Lock()
	for _, id := range ids {
		if !validID(id) {
			continue
		}
		if md, ok := c.metadata[id]; ok {
			delete(c.metadata, id)
			removed = append(removed, md)
		}
		if entry, ok := c.multi[id]; ok {
			delete(c.multi, id)
			for _, tok := range entry.tokens {
				if md, ok := c.metadata[tok]; ok {
					delete(c.metadata, tok)
					removed = append(removed, md)
				}
			}
		}
	}
	c.mu.Unlock()

	for _, md := range removed {
		c.disposeValue(md, true)
	}
	return nil
}

// Of 返回指定 id 的容器，不存在时创建并注册
// 新容器继承当前容器处理器列表的快照。
func (c *Container) Of(id any) (*Container, error) {
	if c.disposed.Load() {
		return nil, ErrContainerDisposed
	}
	r := c.registry
	if id == nil || id == DefaultContainerID {
		return r.Default(), nil
	}
	if existing, err := r.GetContainer(id); err == nil {
		return existing, nil
	}
	child := newContainer(id, r, c.handlersSnapshot())
	if err := r.RegisterContainer(child); err != nil {
		if existing, getErr := r.GetContainer(id); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return child, nil
}

// RegisterHandler 追加一个处理器
func (c *Container) RegisterHandler(h Handler) error {
	if c.disposed.Load() {
		return ErrContainerDisposed
	}
	if err := h.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
	return nil
}

// Reset 按策略重置容器
func (c *Container) Reset(strategy ResetStrategy) error {
	if c.disposed.Load() {
		return ErrContainerDisposed
	}
	c.reset(strategy)
	return nil
}

func (c *Container) reset(strategy ResetStrategy) {
	c.mu.Lock()
	mds := make([]*ServiceMetadata, 0, len(c.metadata))
	for _, md := range c.metadata {
		mds = append(mds, md)
	}
	if strategy == ResetServices {
		c.metadata = make(map[any]*ServiceMetadata)
		c.multi = make(map[any]*multiEntry)
	}
	c.mu.Unlock()

	for _, md := range mds {
		c.disposeValue(md, strategy == ResetServices)
	}
	c.logger().Debug("container reset",
		logging.Field{Key: "container", Value: c.id},
		logging.Field{Key: "services", Value: len(mds)})
}

// Dispose 重置全部服务并永久标记容器为已释放
func (c *Container) Dispose() error {
	if c.disposed.Load() {
		return ErrContainerDisposed
	}
	c.reset(ResetServices)
	if !c.disposed.CompareAndSwap(false, true) {
		return ErrContainerDisposed
	}
	c.registry.forget(c)
	c.logger().Debug("container disposed", logging.Field{Key: "container", Value: c.id})
	return nil
}

// disposeValue 调用已构建值的清理钩子并将值重置为 EMPTY
// 没有构造器和工厂的预设值只有在 force 时才会被丢弃。
func (c *Container) disposeValue(md *ServiceMetadata, force bool) {
	md.mu.Lock()
	if md.value == empty || (!force && md.ctor == nil && md.factory == nil) {
		md.mu.Unlock()
		return
	}
	v, borrowed := md.value, md.borrowed
	md.value = empty
	md.mu.Unlock()
	if borrowed {
		return
	}

	if err := runCleanup(v); err != nil {
		c.logger().Warn("service cleanup failed",
			logging.Field{Key: "container", Value: c.id},
			logging.Field{Key: "service", Value: describeID(md.id)},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

func validID(id any) bool {
	return id != nil && reflect.TypeOf(id).Comparable()
}
