package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Options 数据库配置选项
type Options struct {
	Name string `json:"name"`
	// Driver 与 DSN 一起在没有 Dialector 时选择驱动，见 RegisterDriver
	Driver       string        `json:"driver"`
	DSN          string        `json:"dsn"`
	MaxIdleConns int           `json:"maxIdleConns"`
	MaxOpenConns int           `json:"maxOpenConns"`
	MaxLifetime  time.Duration `json:"maxLifetime"`
	// SlowThreshold 超过该耗时的 SQL 以 Warn 级别记录
	SlowThreshold time.Duration `json:"slowThreshold"`
	// Lazy 首次解析时才打开连接
	Lazy bool `json:"lazy"`

	Dialector   gorm.Dialector `json:"-"`
	GormConfig  *gorm.Config   `json:"-"`
	AutoMigrate []any          `json:"-"` // 需要自动迁移的模型
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, dialector gorm.Dialector) *Options {
	return &Options{
		Name:          name,
		Dialector:     dialector,
		MaxIdleConns:  10,
		MaxOpenConns:  100,
		MaxLifetime:   time.Hour,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return errors.New("database: name is required")
	}
	if o.Dialector != nil {
		return nil
	}
	if o.DSN == "" {
		return errors.New("database: dialector or dsn is required")
	}
	if _, ok := lookupDriver(o.Driver); !ok {
		return errors.Errorf("database: unknown driver %q", o.Driver)
	}
	return nil
}

func (o *Options) dialector() gorm.Dialector {
	if o.Dialector != nil {
		return o.Dialector
	}
	open, _ := lookupDriver(o.Driver)
	return open(o.DSN)
}
