package core

import (
	"context"
	"sync"

	"github.com/gocrud/ioc/logging"
)

// LifecycleEvents 管理应用程序的启动和停止钩子
type LifecycleEvents struct {
	logger logging.Logger

	mu      sync.Mutex
	onStart []func(context.Context) error
	onStop  []func(context.Context) error
}

// NewLifecycle 创建新的生命周期管理器
func NewLifecycle(logger logging.Logger) *LifecycleEvents {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LifecycleEvents{logger: logger}
}

// OnStart 注册启动钩子
func (l *LifecycleEvents) OnStart(fn func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStart = append(l.onStart, fn)
}

// OnStop 注册停止钩子
func (l *LifecycleEvents) OnStop(fn func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStop = append(l.onStop, fn)
}

// Start 按注册顺序执行启动钩子，遇到错误立即返回
func (l *LifecycleEvents) Start(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]func(context.Context) error(nil), l.onStart...)
	l.mu.Unlock()

	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop 倒序执行停止钩子
// 单个钩子失败不会中断其余钩子，返回第一个错误。
func (l *LifecycleEvents) Stop(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]func(context.Context) error(nil), l.onStop...)
	logger := l.logger
	l.mu.Unlock()

	var first error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			logger.Error("stop hook failed", logging.F("error", err.Error()))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (l *LifecycleEvents) setLogger(logger logging.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger
}
