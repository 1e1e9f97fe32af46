package core

import (
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
	"github.com/gocrud/ioc/logging"
)

// Option 定义了修改 Runtime 状态的函数签名，这是框架唯一的扩展点
type Option func(rt *Runtime) error

// WithService 在默认容器中声明服务，见 di.Service
func WithService(target any, opts ...di.ServiceOption) Option {
	return func(rt *Runtime) error {
		return rt.Provide(target, opts...)
	}
}

// WithInvoke 在引导阶段调用 fn，参数从默认容器解析
func WithInvoke(fn any) Option {
	return func(rt *Runtime) error {
		return rt.Invoke(fn)
	}
}

// WithEnvironment 指定运行环境名称
func WithEnvironment(name string) Option {
	return func(rt *Runtime) error {
		rt.Environment = NewEnvironment(name)
		return rt.Container.Set(di.ServiceOptions{ID: di.TypeOf[Environment](), Scope: di.ScopeSingleton, Value: rt.Environment})
	}
}

// WithLogging 用新的日志配置替换默认的控制台日志
// 运行时、容器注册表和托管服务随后都写入新的日志工厂，旧工厂被关闭。
func WithLogging(configure func(b *logging.LoggingBuilder)) Option {
	return func(rt *Runtime) error {
		b := logging.NewLoggingBuilder()
		if configure != nil {
			configure(b)
		}
		if errs := b.Errors(); len(errs) > 0 {
			return errors.Errorf("core: logging configuration: %v", errs)
		}

		old := rt.LoggerFactory
		rt.LoggerFactory = b.Build()
		rt.Logger = rt.LoggerFactory.CreateLogger("app")
		rt.Registry.SetLogger(rt.LoggerFactory.CreateLogger("di"))
		rt.Lifecycle.setLogger(rt.Logger)
		if err := rt.Container.Set(di.ServiceOptions{ID: di.TypeOf[logging.Logger](), Scope: di.ScopeSingleton, Value: rt.Logger}); err != nil {
			return err
		}
		if old != nil {
			return old.Close()
		}
		return nil
	}
}

// WithHostedService 把构造函数或实例注册为托管服务
// 服务在 Runtime.Start 时启动，异常退出会触发应用关闭。
func WithHostedService(target any, opts ...di.ServiceOption) Option {
	return func(rt *Runtime) error {
		return errors.Wrap(hosting.Register(rt.Container, target, opts...), "core: hosted service")
	}
}

// WithWorker 把阻塞执行的函数注册为托管服务，通过 ctx 取消来停止
func WithWorker(fn hosting.WorkerFunc) Option {
	return func(rt *Runtime) error {
		if fn == nil {
			return errors.New("core: worker is nil")
		}
		return hosting.Register(rt.Container, &hosting.Worker{Fn: fn})
	}
}
