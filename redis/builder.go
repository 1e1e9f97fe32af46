package redis

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/config"
)

// Builder Redis 客户端配置构建器
type Builder struct {
	configs  []ClientOptions
	names    map[string]struct{}
	sections []string
	errors   []error
}

// NewBuilder 创建 Redis 构建器
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]struct{})}
}

// AddClient 添加一个 Redis 客户端配置
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	b.add(*opts)
	return b
}

// AddSection 从配置节读取客户端，节下每个键是一个客户端名称
func (b *Builder) AddSection(section string) *Builder {
	b.sections = append(b.sections, section)
	return b
}

func (b *Builder) add(opts ClientOptions) {
	if _, exists := b.names[opts.Name]; exists {
		b.errors = append(b.errors, errors.Errorf("redis: client %q already configured", opts.Name))
		return
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, errors.Wrapf(err, "redis: invalid configuration for %q", opts.Name))
		return
	}
	b.names[opts.Name] = struct{}{}
	b.configs = append(b.configs, opts)
}

// loadSections 把配置节中的客户端加入构建器
func (b *Builder) loadSections(cfg config.Configuration) {
	for _, section := range b.sections {
		if cfg == nil {
			b.errors = append(b.errors, errors.Errorf("redis: section %q needs config.New", section))
			continue
		}
		var raw map[string]map[string]any
		if err := cfg.Bind(section, &raw); err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(raw)) {
			opts := NewDefaultOptions(name)
			if err := cfg.GetSection(section).Bind(name, opts); err != nil {
				b.errors = append(b.errors, err)
				continue
			}
			opts.Name = name
			b.add(*opts)
		}
	}
}

// Build 返回全部客户端配置，存在配置错误时返回错误
// cfg 用于读取 AddSection 添加的配置节，可以为 nil。
func (b *Builder) Build(cfg config.Configuration) ([]ClientOptions, error) {
	b.loadSections(cfg)
	if len(b.errors) > 0 {
		return nil, errors.Errorf("redis: configuration errors: %v", b.errors)
	}
	return b.configs, nil
}
