// Package cron 基于 robfig/cron 提供定时任务
//
// 任务登记在 JobsToken 下，由作为托管服务运行的 Scheduler 在启动时读取。
package cron

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
)

// Builder Cron 配置构建器
type Builder struct {
	seconds  bool
	verbose  bool
	location string
	jobs     []*Job
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{location: "UTC"}
}

// BuilderOption 用于配置 Cron Builder
type BuilderOption func(*Builder)

// WithSeconds 启用秒级精度
func WithSeconds() BuilderOption {
	return func(b *Builder) { b.seconds = true }
}

// WithLocation 设置时区，例如 "Asia/Shanghai"
func WithLocation(location string) BuilderOption {
	return func(b *Builder) { b.location = location }
}

// EnableCronLogger 启用 cron 库的内部调度日志
func EnableCronLogger() BuilderOption {
	return func(b *Builder) { b.verbose = true }
}

// AddJob 添加任务，handler 的参数从容器解析
func AddJob(spec, name string, handler any) BuilderOption {
	return func(b *Builder) {
		b.jobs = append(b.jobs, &Job{Name: name, Spec: spec, Handler: handler})
	}
}

// New 启用定时任务
//
// *Scheduler 以 singleton 注册并作为托管服务运行，任务表达式在这里提前校验。
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		b := NewBuilder()
		for _, opt := range opts {
			opt(b)
		}
		loc, err := time.LoadLocation(b.location)
		if err != nil {
			return errors.Wrapf(err, "cron: location %q", b.location)
		}

		scheduler := NewScheduler(rt.Container, rt.Logger, SchedulerOptions{
			Seconds:  b.seconds,
			Location: loc,
			Verbose:  b.verbose,
		})
		for _, job := range b.jobs {
			if err := job.validate(); err != nil {
				return err
			}
			if _, err := scheduler.Parse(job.Spec); err != nil {
				return errors.Wrapf(err, "cron: job %q", job.Name)
			}
			if err := Register(rt.Container, job); err != nil {
				return err
			}
		}

		err = rt.Container.Set(di.ServiceOptions{ID: di.TypeOf[*Scheduler](), Scope: di.ScopeSingleton, Value: scheduler})
		if err != nil {
			return err
		}
		rt.Features.Set(scheduler)
		return hosting.Register(rt.Container, scheduler)
	}
}
