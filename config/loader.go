package config

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// SettingsSection 容器相关设置所在的配置节
const SettingsSection = "ioc"

// Settings 容器相关设置
type Settings struct {
	// LogLevel 运行时日志级别，例如 "debug"
	LogLevel string `json:"logLevel"`
	// ResetOnReload 配置重新加载后重置默认容器中构建出的值
	ResetOnReload bool `json:"resetOnReload"`
}

// LoadOptions 配置加载选项
type LoadOptions struct {
	Builder   *ConfigurationBuilder
	HotReload bool
	Watch     WatchOptions
}

// LoadOption 配置加载选项函数
type LoadOption func(*LoadOptions)

// WithFile 添加 JSON 或 YAML 配置文件
func WithFile(path string, optional ...bool) LoadOption {
	return func(o *LoadOptions) { o.Builder.AddFile(path, optional...) }
}

// WithEnv 添加带前缀的环境变量
func WithEnv(prefix string) LoadOption {
	return func(o *LoadOptions) { o.Builder.AddEnvironmentVariables(prefix) }
}

// WithInMemory 添加内存配置
func WithInMemory(data map[string]any) LoadOption {
	return func(o *LoadOptions) { o.Builder.AddInMemory(data) }
}

// WithEtcd 添加 etcd 配置源
func WithEtcd(opts EtcdOptions) LoadOption {
	return func(o *LoadOptions) { o.Builder.AddEtcd(opts) }
}

// WithSource 添加自定义配置源
func WithSource(source ConfigurationSource) LoadOption {
	return func(o *LoadOptions) { o.Builder.Add(source) }
}

// WithHotReload 启用配置文件监听
func WithHotReload(watch ...WatchOptions) LoadOption {
	return func(o *LoadOptions) {
		o.HotReload = true
		if len(watch) > 0 {
			o.Watch = watch[0]
		}
	}
}

// New 加载配置并注册到运行时
//
// Configuration 和 *ReloadableConfiguration 以 singleton 注册到默认容器，
// 配置中的 ioc 节用于调整运行时本身。
func New(opts ...LoadOption) core.Option {
	return func(rt *core.Runtime) error {
		options := &LoadOptions{Builder: NewConfigurationBuilder()}
		for _, opt := range opts {
			opt(options)
		}

		cfg, err := options.Builder.BuildReloadable()
		if err != nil {
			return err
		}

		c := rt.Container
		if err := c.Set(di.ServiceOptions{ID: di.TypeOf[Configuration](), Scope: di.ScopeSingleton, Value: Configuration(cfg)}); err != nil {
			return err
		}
		if err := c.Set(di.ServiceOptions{ID: di.TypeOf[*ReloadableConfiguration](), Scope: di.ScopeSingleton, Value: cfg}); err != nil {
			return err
		}
		rt.Features.Set(cfg)

		var settings Settings
		if cfg.Exists(SettingsSection) {
			if err := cfg.Bind(SettingsSection, &settings); err != nil {
				return errors.Wrap(err, "config: ioc settings")
			}
		}
		if settings.LogLevel != "" {
			level, err := logging.ParseLevel(settings.LogLevel)
			if err != nil {
				return errors.Wrap(err, "config: ioc settings")
			}
			rt.SetLogLevel(level)
		}
		if settings.ResetOnReload {
			ResetOnReload(cfg, c)
		}

		if options.HotReload {
			watch := options.Watch
			if watch.Logger == nil {
				watch.Logger = rt.Logger.WithCategory("config")
			}
			ctx, cancel := context.WithCancel(context.Background())
			rt.Lifecycle.OnStart(func(context.Context) error {
				go func() {
					if err := cfg.Watch(ctx, watch); err != nil {
						rt.ReportError(errors.Wrap(err, "config: watch"))
					}
				}()
				return nil
			})
			rt.Lifecycle.OnStop(func(context.Context) error {
				cancel()
				return nil
			})
		}
		return nil
	}
}

// Bind 把配置节注册进运行时的默认容器，见 Provide
func Bind[T any](section string) core.Option {
	return func(rt *core.Runtime) error {
		cfg, ok := core.GetFeature[*ReloadableConfiguration](rt)
		if !ok {
			return errors.Errorf("config: Bind(%q) requires config.New to be applied first", section)
		}
		return Provide[T](rt.Container, cfg, section)
	}
}

// FromRuntime 返回 config.New 注册的配置，未启用时返回 nil
func FromRuntime(rt *core.Runtime) Configuration {
	if cfg, ok := core.GetFeature[*ReloadableConfiguration](rt); ok {
		return cfg
	}
	return nil
}
