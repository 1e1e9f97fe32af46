package etcd

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/config"
)

// Builder etcd 客户端配置构建器
type Builder struct {
	configs  []ClientOptions
	names    map[string]struct{}
	sections []string
	errors   []error
}

// NewBuilder 创建 etcd 构建器
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]struct{})}
}

// AddClient 添加一个 etcd 客户端配置
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	if _, exists := b.names[name]; exists {
		b.errors = append(b.errors, errors.Errorf("etcd: client %q already configured", name))
		return b
	}
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, errors.Wrapf(err, "etcd: invalid configuration for %q", name))
		return b
	}
	b.names[name] = struct{}{}
	b.configs = append(b.configs, *opts)
	return b
}

// AddSection 从配置节读取客户端，节下每个键是一个客户端名称
func (b *Builder) AddSection(section string) *Builder {
	b.sections = append(b.sections, section)
	return b
}

// Build 返回全部客户端配置，存在配置错误时返回错误
func (b *Builder) Build(cfg config.Configuration) ([]ClientOptions, error) {
	for _, section := range b.sections {
		if cfg == nil {
			b.errors = append(b.errors, errors.Errorf("etcd: section %q needs config.New", section))
			continue
		}
		var raw map[string]map[string]any
		if err := cfg.Bind(section, &raw); err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		sub := cfg.GetSection(section)
		for _, name := range slices.Sorted(maps.Keys(raw)) {
			b.AddClient(name, func(o *ClientOptions) {
				if err := sub.Bind(name, o); err != nil {
					b.errors = append(b.errors, err)
				}
				o.Name = name
			})
		}
	}
	if len(b.errors) > 0 {
		return nil, errors.Errorf("etcd: configuration errors: %v", b.errors)
	}
	return b.configs, nil
}
