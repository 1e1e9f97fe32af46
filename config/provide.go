package config

import (
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
)

// Load 绑定指定配置节到 T，section 为空时绑定全部配置
func Load[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

// Provide 把配置节 section 注册进容器
//
// 注册的服务：
//   - OptionMonitor[T]：singleton，总是读取最新值
//   - Option[T]：singleton，首次解析时的值
//   - OptionSnapshot[T]：每个容器一个快照
//   - T：每个容器一个值，容器 ResetValue 后重新绑定
func Provide[T any](c *di.Container, cfg Configuration, section string) error {
	if c == nil || cfg == nil {
		return errors.New("config: container and configuration are required")
	}
	cache := NewOptionsCache[T](cfg, section)
	if err := cache.Err(); err != nil && cfg.Exists(section) {
		return errors.Wrapf(err, "config: provide %s", section)
	}

	regs := []di.ServiceOptions{
		{
			ID:    di.TypeOf[OptionMonitor[T]](),
			Scope: di.ScopeSingleton,
			Value: NewOptionMonitor(cache),
		},
		{
			ID:    di.TypeOf[Option[T]](),
			Scope: di.ScopeSingleton,
			Factory: func(*di.Container, any) (any, error) {
				return NewOption(cache.Get()), nil
			},
		},
		{
			ID: di.TypeOf[OptionSnapshot[T]](),
			Factory: func(*di.Container, any) (any, error) {
				return NewOptionSnapshot(cache.Snapshot()), nil
			},
		},
		{
			ID: di.TypeOf[T](),
			Factory: func(*di.Container, any) (any, error) {
				return cache.Snapshot(), nil
			},
		},
	}
	for _, opts := range regs {
		if err := c.Set(opts); err != nil {
			return err
		}
	}
	return nil
}

// ResetOnReload 在配置重新加载后对容器执行 ResetValue
// 由工厂或构造器构建的服务会在下一次解析时使用新配置重建。
// cfg 不支持重新加载时返回 false。
func ResetOnReload(cfg Configuration, c *di.Container) bool {
	rc, ok := cfg.(interface{ OnReload(func()) })
	if !ok {
		return false
	}
	rc.OnReload(func() {
		_ = c.Reset(di.ResetValue)
	})
	return true
}
