package cron

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// Scheduler 定时任务托管服务
type Scheduler struct {
	container *di.Container
	logger    logging.Logger
	parser    cron.Parser
	cron      *cron.Cron

	mu      sync.RWMutex
	jobs    map[string]*Job
	entries map[string]cron.EntryID
	started bool
	// runCtx 传给任务的上下文，Stop 时取消
	runCtx context.Context
	cancel context.CancelFunc
}

// SchedulerOptions 调度器选项
type SchedulerOptions struct {
	// Seconds 表达式包含秒字段
	Seconds bool
	// Location 时区，默认 UTC
	Location *time.Location
	// Verbose 输出 cron 库的调度日志
	Verbose bool
}

// NewScheduler 创建调度器，任务在 c 的子容器中执行
func NewScheduler(c *di.Container, logger logging.Logger, opts SchedulerOptions) *Scheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithCategory("cron")
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	fields := cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if opts.Seconds {
		fields |= cron.Second
	}
	parser := cron.NewParser(fields)
	cl := newCronLogger(logger, opts.Verbose)

	runCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runCtx:    runCtx,
		cancel:    cancel,
		container: c,
		logger:    logger,
		parser:    parser,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(opts.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		jobs:    make(map[string]*Job),
		entries: make(map[string]cron.EntryID),
	}
}

// Parse 按调度器的格式解析表达式
func (s *Scheduler) Parse(spec string) (cron.Schedule, error) {
	schedule, err := s.parser.Parse(spec)
	return schedule, errors.Wrapf(err, "cron: parse %q", spec)
}

// Start 读取 JobsToken 下的全部任务并启动调度
func (s *Scheduler) Start(context.Context) error {
	var jobs []*Job
	if s.container.Has(JobsToken) {
		var err error
		if jobs, err = di.ResolveMany[*Job](s.container, JobsToken); err != nil {
			return errors.Wrap(err, "cron: resolve jobs")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("cron: scheduler already started")
	}
	for _, job := range jobs {
		if err := s.add(job); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started", logging.F("jobs", len(jobs)))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.cancel()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Add 在运行期间添加任务
func (s *Scheduler) Add(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(job)
}

func (s *Scheduler) add(job *Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	if _, exists := s.jobs[job.Name]; exists {
		return errors.Errorf("cron: job %q already scheduled", job.Name)
	}
	schedule, err := s.Parse(job.Spec)
	if err != nil {
		return err
	}
	s.entries[job.Name] = s.cron.Schedule(schedule, cron.FuncJob(func() { _ = s.run(job) }))
	s.jobs[job.Name] = job
	s.logger.Debug("job scheduled", logging.F("job", job.Name), logging.F("spec", job.Spec))
	return nil
}

// Remove 移除任务，任务不存在时返回 false
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	delete(s.jobs, name)
	return true
}

// Next 返回任务下一次执行的时间
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.RLock()
	id, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// RunNow 立即同步执行一次任务
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return errors.Errorf("cron: job %q not found", name)
	}
	return s.run(job)
}

// run 在新的子容器中调用任务，结束后释放子容器
func (s *Scheduler) run(job *Job) (err error) {
	logger := s.logger.WithFields(logging.F("job", job.Name))
	start := time.Now()

	scope, err := s.container.Registry().NewContainer(nil)
	if err != nil {
		logger.Error("job scope failed", logging.F("error", err.Error()))
		return err
	}
	defer func() {
		if rerr := s.container.Registry().RemoveContainer(scope); rerr != nil {
			logger.Warn("job scope cleanup failed", logging.F("error", rerr.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(s.runCtx)
	defer cancel()
	if err := scope.SetValue(di.TypeOf[context.Context](), ctx); err != nil {
		return err
	}

	if err = di.Invoke(scope, job.Handler); err != nil {
		logger.Error("job failed", logging.F("error", err.Error()), logging.F("elapsed", time.Since(start).String()))
		return errors.Wrapf(err, "cron: job %q", job.Name)
	}
	logger.Debug("job completed", logging.F("elapsed", time.Since(start).String()))
	return nil
}
