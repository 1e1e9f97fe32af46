package mongodb

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/config"
)

// Builder MongoDB 配置构建器
type Builder struct {
	configs  []Options
	names    map[string]struct{}
	sections []string
	errors   []error
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]struct{})}
}

// Add 添加 MongoDB 客户端配置
func (b *Builder) Add(name, uri string, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	if _, exists := b.names[name]; exists {
		b.errors = append(b.errors, errors.Errorf("mongodb: client %q already configured", name))
		return b
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, errors.Wrapf(err, "mongodb: invalid configuration for %q", name))
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
func (b *Builder) Build(cfg config.Configuration) ([]Options, error) {
	for _, section := range b.sections {
		if cfg == nil {
			b.errors = append(b.errors, errors.Errorf("mongodb: section %q needs config.New", section))
			continue
		}
		var raw map[string]map[string]any
		if err := cfg.Bind(section, &raw); err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(raw)) {
			b.Add(name, "", func(o *Options) {
				if err := cfg.GetSection(section).Bind(name, o); err != nil {
					b.errors = append(b.errors, err)
				}
				o.Name = name
			})
		}
	}
	if len(b.errors) > 0 {
		return nil, errors.Errorf("mongodb: configuration errors: %v", b.errors)
	}
	return b.configs, nil
}
