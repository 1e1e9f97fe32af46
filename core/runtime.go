package core

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
	"github.com/gocrud/ioc/logging"
)

// Runtime 是框架的状态容器，所有 Option 都作用在它上面
type Runtime struct {
	// Features 存放构建时特性（配置、Web 引擎等）
	Features FeatureCollection

	// Registry 容器注册表，Container 是它的默认容器
	Registry  *di.Registry
	Container *di.Container

	// Lifecycle 生命周期钩子
	Lifecycle *LifecycleEvents

	Logger        logging.Logger
	LoggerFactory logging.LoggerFactory
	Environment   Environment

	// ErrorHandler 记录运行时产生的严重错误，默认写入 Logger
	ErrorHandler func(err error)

	hosts        *hosting.Manager
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewRuntime 创建运行时，默认使用 Info 级别的控制台日志
// 运行时本身、Logger 和环境以 singleton 注册到默认容器。
func NewRuntime() *Runtime {
	factory := logging.NewLoggingBuilder().AddConsole().Build()
	registry := di.NewRegistry(di.WithLogger(factory.CreateLogger("di")))

	rt := &Runtime{
		Registry:      registry,
		Container:     registry.Default(),
		LoggerFactory: factory,
		Logger:        factory.CreateLogger("app"),
		Environment:   EnvironmentFromEnv(),
		shutdownCh:    make(chan struct{}),
	}
	rt.Lifecycle = NewLifecycle(rt.Logger)
	rt.ErrorHandler = func(err error) {
		rt.Logger.Error("runtime error", logging.F("error", err.Error()))
	}

	rt.registerSelf()
	return rt
}

func (rt *Runtime) registerSelf() {
	values := map[any]any{
		di.TypeOf[*Runtime]():       rt,
		di.TypeOf[logging.Logger](): rt.Logger,
		di.TypeOf[Environment]():    rt.Environment,
	}
	for id, v := range values {
		// 默认容器刚创建，注册不会失败
		_ = rt.Container.Set(di.ServiceOptions{ID: id, Scope: di.ScopeSingleton, Value: v})
	}
}

// Shutdown 请求应用退出，可多次调用
func (rt *Runtime) Shutdown() {
	rt.shutdownOnce.Do(func() { close(rt.shutdownCh) })
}

// Done 返回一个通道，当应用需要退出时该通道会关闭
func (rt *Runtime) Done() <-chan struct{} {
	return rt.shutdownCh
}

// ReportError 把错误交给 ErrorHandler
func (rt *Runtime) ReportError(err error) {
	if err != nil && rt.ErrorHandler != nil {
		rt.ErrorHandler(err)
	}
}

// SetLogLevel 调整日志工厂的最低级别，已创建的 Logger 同样生效
func (rt *Runtime) SetLogLevel(level logging.LogLevel) {
	rt.LoggerFactory.SetMinimumLevel(level)
}

// Provide 在默认容器中声明服务，见 di.Service
func (rt *Runtime) Provide(target any, opts ...di.ServiceOption) error {
	return di.Service(rt.Container, target, opts...)
}

// Invoke 调用函数，参数从默认容器解析
func (rt *Runtime) Invoke(fn any) error {
	return di.Invoke(rt.Container, fn)
}

// NewScope 创建一个随机 id 的子容器，用完后通过 Registry.RemoveContainer 释放
func (rt *Runtime) NewScope() (*di.Container, error) {
	return rt.Registry.NewContainer(nil)
}

// Apply 依次应用 Option
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}

// Start 执行启动钩子，然后启动全部托管服务
// 托管服务异常退出时会上报错误并触发 Shutdown。
func (rt *Runtime) Start(ctx context.Context) error {
	if err := rt.Lifecycle.Start(ctx); err != nil {
		return err
	}
	rt.hosts = hosting.NewManager(rt.Container, rt.Logger)
	errCh, err := rt.hosts.Start(ctx)
	if err != nil {
		return err
	}
	go func() {
		select {
		case err := <-errCh:
			rt.ReportError(err)
			rt.Shutdown()
		case <-rt.shutdownCh:
		}
	}()
	return nil
}

// Stop 停止托管服务，逆序执行停止钩子，然后关闭注册表和日志工厂
// 注册表关闭时容器中的值依次执行清理钩子。
func (rt *Runtime) Stop(ctx context.Context) error {
	rt.Shutdown()

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if rt.hosts != nil {
		keep(rt.hosts.Stop(ctx))
	}
	keep(rt.Lifecycle.Stop(ctx))
	keep(errors.Wrap(rt.Registry.Close(), "core: close registry"))
	keep(rt.LoggerFactory.Close())
	return first
}
