package di

import (
	"sync"

	"github.com/pkg/errors"
)

// Cluster 把多个容器组合成一个查询面
//
// 读操作按成员顺序依次尝试，写操作落在集群自己的私有容器上，
// 私有容器始终是第一个成员。
type Cluster struct {
	private *Container

	mu      sync.RWMutex
	members []*Container
}

// NewCluster 创建集群，私有容器通过 r 以随机 id 创建
func NewCluster(r *Registry, members ...*Container) (*Cluster, error) {
	private, err := r.NewContainer(nil)
	if err != nil {
		return nil, err
	}
	cl := &Cluster{private: private, members: []*Container{private}}
	for _, m := range members {
		cl.Add(m)
	}
	return cl, nil
}

// Add 追加成员，重复添加会被忽略
func (cl *Cluster) Add(c *Container) {
	if c == nil {
		return
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for _, m := range cl.members {
		if m == c {
			return
		}
	}
	cl.members = append(cl.members, c)
}

// Members 返回成员快照
func (cl *Cluster) Members() []*Container {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	out := make([]*Container, len(cl.members))
	copy(out, cl.members)
	return out
}

// Private 返回集群的私有容器
func (cl *Cluster) Private() *Container { return cl.private }

// Has 任意成员包含 id 即返回 true
func (cl *Cluster) Has(id any) bool {
	for _, m := range cl.Members() {
		if m.Has(id) {
			return true
		}
	}
	return false
}

// Get 返回第一个成功解析的值
// 前面成员中 id 不存在的错误被忽略，都失败时返回最后一个错误。
func (cl *Cluster) Get(id any) (any, error) {
	var lastErr error = &ServiceNotFoundError{ID: id}
	for _, m := range cl.Members() {
		v, err := m.Get(id)
		if err == nil {
			return v, nil
		}
		if !notFoundFor(err, id) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// GetMany 按成员顺序拼接 multiple 服务，没有登记该 id 的成员被跳过
func (cl *Cluster) GetMany(id any) ([]any, error) {
	var (
		out   []any
		found bool
	)
	for _, m := range cl.Members() {
		vs, err := m.GetMany(id)
		if err != nil {
			if notFoundFor(err, id) {
				continue
			}
			return nil, err
		}
		found = true
		out = append(out, vs...)
	}
	if !found {
		return nil, &ServiceNotFoundError{ID: id}
	}
	return out, nil
}

// Set 在私有容器中注册服务
func (cl *Cluster) Set(opts ServiceOptions) error {
	return cl.private.Set(opts)
}

// RegisterHandler 在私有容器中追加处理器
func (cl *Cluster) RegisterHandler(h Handler) error {
	return cl.private.RegisterHandler(h)
}

// Dispose 释放全部成员
func (cl *Cluster) Dispose() error {
	var first error
	for _, m := range cl.Members() {
		if err := m.Dispose(); err != nil && !errors.Is(err, ErrContainerDisposed) && first == nil {
			first = err
		}
	}
	return first
}

// notFoundFor 报告 err 是否表示 id 本身不存在（而不是它的某个依赖缺失）
func notFoundFor(err error, id any) bool {
	var nf *ServiceNotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	return !validID(id) || nf.ID == id
}
