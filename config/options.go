package config

import (
	"sync"
)

// Option 静态配置选项，进程生命周期内不变
type Option[T any] interface {
	Value() T
}

// OptionSnapshot 快照配置选项，同一个容器内不变，不同容器各自取快照
type OptionSnapshot[T any] interface {
	Value() T
}

// OptionMonitor 监听配置选项，总是返回最新的配置值
type OptionMonitor[T any] interface {
	Value() T
}

// OptionsCache 缓存配置节绑定后的值，配置重新加载时自动刷新
type OptionsCache[T any] struct {
	config  Configuration
	section string

	mu      sync.RWMutex
	current T
	err     error
}

// NewOptionsCache 创建配置缓存，配置节不存在时值为零值
func NewOptionsCache[T any](cfg Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{config: cfg, section: section}
	cache.reload()
	if rc, ok := cfg.(interface{ OnReload(func()) }); ok {
		rc.OnReload(cache.reload)
	}
	return cache
}

func (c *OptionsCache[T]) reload() {
	var v T
	err := c.config.Bind(c.section, &v)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err == nil {
		c.current = v
	}
}

// Get 获取当前配置值
func (c *OptionsCache[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Err 返回最近一次绑定的错误
func (c *OptionsCache[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Snapshot 返回当前配置值的深拷贝
func (c *OptionsCache[T]) Snapshot() T {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	data, err := json.Marshal(current)
	if err != nil {
		return current
	}
	var snapshot T
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return current
	}
	return snapshot
}

type option[T any] struct {
	value T
}

func (o *option[T]) Value() T { return o.value }

// NewOption 创建静态配置选项
func NewOption[T any](value T) Option[T] {
	return &option[T]{value: value}
}

type optionSnapshot[T any] struct {
	snapshot T
}

func (o *optionSnapshot[T]) Value() T { return o.snapshot }

// NewOptionSnapshot 创建快照配置选项
func NewOptionSnapshot[T any](snapshot T) OptionSnapshot[T] {
	return &optionSnapshot[T]{snapshot: snapshot}
}

type optionMonitor[T any] struct {
	cache *OptionsCache[T]
}

func (o *optionMonitor[T]) Value() T { return o.cache.Get() }

// NewOptionMonitor 创建监听配置选项
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return &optionMonitor[T]{cache: cache}
}
