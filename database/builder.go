package database

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gocrud/ioc/config"
)

// Builder 数据库配置构建器
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

// Add 添加数据库配置
// dialector 为 GORM 驱动，例如 sqlite.Open(dsn)；为 nil 时使用 Options.Driver 和 DSN。
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}
	b.add(*opts)
	return b
}

// AddSection 从配置节读取数据库，节下每个键是一个实例名称
func (b *Builder) AddSection(section string) *Builder {
	b.sections = append(b.sections, section)
	return b
}

func (b *Builder) add(opts Options) {
	if _, exists := b.names[opts.Name]; exists {
		b.errors = append(b.errors, errors.Errorf("database: %q already configured", opts.Name))
		return
	}
	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, errors.Wrapf(err, "database: invalid configuration for %q", opts.Name))
		return
	}
	b.names[opts.Name] = struct{}{}
	b.configs = append(b.configs, opts)
}

func (b *Builder) loadSections(cfg config.Configuration) {
	for _, section := range b.sections {
		if cfg == nil {
			b.errors = append(b.errors, errors.Errorf("database: section %q needs config.New", section))
			continue
		}
		var raw map[string]map[string]any
		if err := cfg.Bind(section, &raw); err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(raw)) {
			opts := NewDefaultOptions(name, nil)
			if err := cfg.GetSection(section).Bind(name, opts); err != nil {
				b.errors = append(b.errors, err)
				continue
			}
			opts.Name = name
			b.add(*opts)
		}
	}
}

// Build 返回全部数据库配置，存在配置错误时返回错误
func (b *Builder) Build(cfg config.Configuration) ([]Options, error) {
	b.loadSections(cfg)
	if len(b.errors) > 0 {
		return nil, errors.Errorf("database: configuration errors: %v", b.errors)
	}
	return b.configs, nil
}
