package core

import (
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// Extension 可复用的功能模块
// 扩展至少需要实现 ServiceConfigurator 或 RuntimeConfigurator 之一。
type Extension interface {
	// Name 返回扩展的名称，用于日志记录和调试
	Name() string
}

// ServiceConfigurator 负责向默认容器注册服务
type ServiceConfigurator interface {
	ConfigureServices(c *di.Container) error
}

// RuntimeConfigurator 负责配置运行时，例如添加生命周期钩子或特性
type RuntimeConfigurator interface {
	ConfigureRuntime(rt *Runtime) error
}

// WithExtension 应用扩展，先注册服务再配置运行时
func WithExtension(ext Extension) Option {
	return func(rt *Runtime) error {
		if ext == nil {
			return errors.New("core: extension is nil")
		}
		sc, isServices := ext.(ServiceConfigurator)
		rc, isRuntime := ext.(RuntimeConfigurator)
		if !isServices && !isRuntime {
			return errors.Errorf("core: extension %q implements neither ServiceConfigurator nor RuntimeConfigurator", ext.Name())
		}
		if isServices {
			if err := sc.ConfigureServices(rt.Container); err != nil {
				return errors.Wrapf(err, "core: extension %q", ext.Name())
			}
		}
		if isRuntime {
			if err := rc.ConfigureRuntime(rt); err != nil {
				return errors.Wrapf(err, "core: extension %q", ext.Name())
			}
		}
		rt.Logger.Debug("extension applied", logging.F("extension", ext.Name()))
		return nil
	}
}
