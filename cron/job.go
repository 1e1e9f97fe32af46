package cron

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
)

// JobsToken 全部定时任务
var JobsToken = di.NewToken[*Job]("cron.jobs")

// Job 定时任务定义
//
// Handler 是任意函数，参数在每次执行时从一个新的子容器解析，
// 其中还注册了本次执行的 context.Context；返回的 error 会被记录。
//
//	&cron.Job{Name: "sync", Spec: "*/5 * * * *", Handler: func(ctx context.Context, svc *SyncService) error {
//	    return svc.Sync(ctx)
//	}}
type Job struct {
	Name    string
	Spec    string
	Handler any
}

func (j *Job) validate() error {
	if j == nil {
		return errors.New("cron: job is nil")
	}
	if j.Name == "" {
		return errors.New("cron: job name is required")
	}
	if j.Spec == "" {
		return errors.Errorf("cron: job %q has no schedule", j.Name)
	}
	if j.Handler == nil || reflect.TypeOf(j.Handler).Kind() != reflect.Func {
		return errors.Errorf("cron: job %q handler must be a function, got %T", j.Name, j.Handler)
	}
	return nil
}

// Register 把任务登记到容器，调度器启动时读取
func Register(c *di.Container, job *Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	return di.Service(c, JobsToken, di.WithValue(job), di.AsMultiple(), di.AsGlobal())
}
