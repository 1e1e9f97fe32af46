package di

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/logging"
)

// DefaultContainerID 默认容器的保留 id
const DefaultContainerID = "default"

// Registry 管理一组容器，其中的默认容器存放所有 singleton 服务
type Registry struct {
	def      *Container
	logger   atomic.Pointer[loggerRef]
	provider TypeProvider

	mu         sync.RWMutex
	containers map[any]*Container
	order      []any
}

type loggerRef struct {
	logging.Logger
}

// RegistryOption 配置 Registry
type RegistryOption func(r *Registry)

// WithLogger 设置注册表及其容器使用的日志记录器
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) { r.SetLogger(logger) }
}

// WithTypeProvider 替换注入点类型信息的来源
func WithTypeProvider(p TypeProvider) RegistryOption {
	return func(r *Registry) {
		if p != nil {
			r.provider = p
		}
	}
}

// NewRegistry 创建注册表以及它的默认容器
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		provider:   ReflectTypeProvider{},
		containers: make(map[any]*Container),
	}
	r.logger.Store(&loggerRef{logging.Nop()})
	for _, opt := range opts {
		opt(r)
	}
	r.def = newContainer(DefaultContainerID, r, nil)
	return r
}

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// DefaultRegistry 返回进程级的注册表，首次调用时创建
func DefaultRegistry() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// SetDefaultRegistry 替换进程级的注册表并返回旧值（主要用于测试）
func SetDefaultRegistry(r *Registry) *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	old := defaultRegistry
	defaultRegistry = r
	return old
}

// Default 返回默认容器
func (r *Registry) Default() *Container { return r.def }

// Logger 返回注册表使用的日志记录器
func (r *Registry) Logger() logging.Logger { return r.logger.Load().Logger }

// SetLogger 替换日志记录器，nil 会被忽略
func (r *Registry) SetLogger(logger logging.Logger) {
	if logger != nil {
		r.logger.Store(&loggerRef{logger.WithCategory("di")})
	}
}

// RegisterContainer 登记一个容器
func (r *Registry) RegisterContainer(c *Container) error {
	if c == nil {
		return &CannotRegisterContainerError{Reason: "container is nil"}
	}
	if c.id == nil || c.id == DefaultContainerID {
		return &CannotRegisterContainerError{ID: c.id, Reason: "id is reserved for the default container"}
	}
	if !validID(c.id) {
		return &CannotRegisterContainerError{ID: c.id, Reason: "id must be a comparable value"}
	}
	if c.registry != r {
		return &CannotRegisterContainerError{ID: c.id, Reason: "container belongs to another registry"}
	}
	if c.Disposed() {
		return &CannotRegisterContainerError{ID: c.id, Reason: "container is disposed"}
	}

	r.mu.Lock()
	if _, exists := r.containers[c.id]; exists {
		r.mu.Unlock()
		return &CannotRegisterContainerError{ID: c.id, Reason: "id already registered"}
	}
	r.containers[c.id] = c
	r.order = append(r.order, c.id)
	r.mu.Unlock()

	r.Logger().Debug("container registered", logging.Field{Key: "container", Value: c.id})
	return nil
}

// GetContainer 按 id 查找容器，默认 id 返回默认容器
func (r *Registry) GetContainer(id any) (*Container, error) {
	if id == DefaultContainerID {
		return r.def, nil
	}
	if validID(id) {
		r.mu.RLock()
		c, ok := r.containers[id]
		r.mu.RUnlock()
		if ok {
			return c, nil
		}
	}
	return nil, &ContainerNotFoundError{ID: id}
}

// HasContainer 报告 id 对应的容器是否存在
func (r *Registry) HasContainer(id any) bool {
	_, err := r.GetContainer(id)
	return err == nil
}

// NewContainer 创建并登记一个容器，id 为 nil 时生成随机 id
// 新容器继承默认容器处理器列表的快照。
func (r *Registry) NewContainer(id any) (*Container, error) {
	if id == nil {
		id = uuid.NewString()
	}
	if !validID(id) {
		return nil, &CannotRegisterContainerError{ID: id, Reason: "id must be a comparable value"}
	}
	c := newContainer(id, r, r.def.handlersSnapshot())
	if err := r.RegisterContainer(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveContainer 注销并释放容器
func (r *Registry) RemoveContainer(c *Container) error {
	if c == nil {
		return &ContainerNotFoundError{}
	}
	r.mu.Lock()
	existing, ok := r.containers[c.id]
	if !ok || existing != c {
		r.mu.Unlock()
		return &ContainerNotFoundError{ID: c.id}
	}
	r.removeLocked(c.id)
	r.mu.Unlock()

	r.Logger().Debug("container removed", logging.Field{Key: "container", Value: c.id})
	if err := c.Dispose(); err != nil && !errors.Is(err, ErrContainerDisposed) {
		return err
	}
	return nil
}

// Containers 按登记顺序返回全部非默认容器
func (r *Registry) Containers() []*Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Container, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.containers[id])
	}
	return out
}

// Close 按登记的逆序释放所有容器，最后释放默认容器
func (r *Registry) Close() error {
	r.mu.Lock()
	order := r.order
	all := make([]*Container, 0, len(order)+1)
	for i := len(order) - 1; i >= 0; i-- {
		all = append(all, r.containers[order[i]])
	}
	r.containers = make(map[any]*Container)
	r.order = nil
	r.mu.Unlock()

	all = append(all, r.def)
	for _, c := range all {
		if err := c.Dispose(); err != nil && !errors.Is(err, ErrContainerDisposed) {
			return err
		}
	}
	r.Logger().Debug("registry closed", logging.Field{Key: "containers", Value: len(all)})
	return nil
}

// forget 在容器释放后移除登记
func (r *Registry) forget(c *Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.containers[c.id]; ok && existing == c {
		r.removeLocked(c.id)
	}
}

func (r *Registry) removeLocked(id any) {
	delete(r.containers, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
