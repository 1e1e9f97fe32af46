package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/logging"
)

// ShutdownTimeout 优雅关闭的最长时间
var ShutdownTimeout = 5 * time.Second

// Run 启动应用程序，阻塞直到收到 SIGINT/SIGTERM 或运行时请求退出
func Run(opts ...core.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, opts...)
}

// RunContext 同 Run，ctx 结束时退出
func RunContext(ctx context.Context, opts ...core.Option) error {
	rt, err := New(opts...)
	if err != nil {
		return err
	}
	return Serve(ctx, rt)
}

// Serve 启动已构建的运行时，阻塞直到 ctx 结束或 rt.Shutdown 被调用，然后优雅关闭
func Serve(ctx context.Context, rt *core.Runtime) error {
	if err := rt.Start(ctx); err != nil {
		rt.Logger.Error("application failed to start", logging.F("error", err.Error()))
		_ = stop(rt)
		return errors.Wrap(err, "app: start")
	}
	rt.Logger.Info("application started", logging.F("environment", rt.Environment.Name()))

	select {
	case <-ctx.Done():
		rt.Logger.Info("shutdown signal received")
	case <-rt.Done():
		rt.Logger.Info("shutdown requested")
	}
	return stop(rt)
}

func stop(rt *core.Runtime) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return rt.Stop(ctx)
}
