package hosting

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// HostedService 托管服务接口
// Manager 在独立的 goroutine 中调用 Start，Start 可以阻塞直到 ctx 被取消。
type HostedService interface {
	// Start 启动服务，返回非 nil 且不是 ctx 取消的错误会被上报
	Start(ctx context.Context) error
	// Stop 执行额外的清理工作，ctx 控制超时
	Stop(ctx context.Context) error
}

// ServicesToken 所有托管服务共享的 multiple 标识
var ServicesToken = di.NewToken[HostedService]("hosting.services")

var hostedServiceType = di.TypeOf[HostedService]()

// Register 把构造函数或值注册为托管服务
// target 为函数时其返回类型必须实现 HostedService。
// 服务默认以 singleton 注册，任何容器上的 Manager 都能看到。
func Register(c *di.Container, target any, opts ...di.ServiceOption) error {
	opts = append([]di.ServiceOption{di.AsGlobal()}, opts...)
	switch t := target.(type) {
	case nil:
		return errors.New("hosting: service is nil")
	case HostedService:
		opts = append(opts, di.WithValue(t))
		target = ServicesToken
	case *di.Constructor:
		if !t.Type().Implements(hostedServiceType) {
			return errors.Errorf("hosting: %v does not implement HostedService", t.Type())
		}
	default:
		ft := reflect.TypeOf(target)
		if ft.Kind() != reflect.Func || ft.NumOut() == 0 {
			return errors.Errorf("hosting: unsupported service %T", target)
		}
		if !ft.Out(0).Implements(hostedServiceType) {
			return errors.Errorf("hosting: %v does not implement HostedService", ft.Out(0))
		}
	}
	opts = append(opts, di.WithID(ServicesToken), di.AsMultiple())
	return di.Service(c, target, opts...)
}

// WorkerFunc 阻塞执行的后台任务，通过 ctx.Done() 判断退出
type WorkerFunc func(ctx context.Context) error

// Worker 把 WorkerFunc 适配为 HostedService
type Worker struct {
	Name string
	Fn   WorkerFunc
}

// Start 运行任务直到返回
func (w *Worker) Start(ctx context.Context) error { return w.Fn(ctx) }

// Stop 无需额外清理，任务通过 ctx 退出
func (w *Worker) Stop(context.Context) error { return nil }

// BackgroundService 后台服务基类
// 嵌入它的服务在 Start 中监听 StopChan，Stop 会等待 Done 或超时。
type BackgroundService struct {
	name   string
	logger logging.Logger

	stopOnce sync.Once
	doneOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBackgroundService 创建后台服务
func NewBackgroundService(name string, logger logging.Logger) *BackgroundService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &BackgroundService{
		name:   name,
		logger: logger.WithFields(logging.F("service", name)),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Name 返回服务名
func (s *BackgroundService) Name() string { return s.name }

// Start 阻塞直到 Stop 或 ctx 取消
func (s *BackgroundService) Start(ctx context.Context) error {
	defer s.Done()
	select {
	case <-s.stopCh:
		s.logger.Debug("background service stopped by signal")
	case <-ctx.Done():
		s.logger.Debug("background service context cancelled")
	}
	return nil
}

// Stop 发出停止信号并等待服务结束
func (s *BackgroundService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		s.logger.Warn("background service stop timeout")
		return ctx.Err()
	}
}

// ShouldStop 报告是否已收到停止信号
func (s *BackgroundService) ShouldStop() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// StopChan 返回停止通道，用于在 select 中监听
func (s *BackgroundService) StopChan() <-chan struct{} { return s.stopCh }

// Done 标记服务结束，可多次调用
func (s *BackgroundService) Done() {
	s.doneOnce.Do(func() { close(s.doneCh) })
}

// TimedHostedService 按固定间隔执行任务的托管服务
type TimedHostedService struct {
	*BackgroundService
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewTimedHostedService 创建定时托管服务
func NewTimedHostedService(name string, interval time.Duration, task func(ctx context.Context) error, logger logging.Logger) *TimedHostedService {
	return &TimedHostedService{
		BackgroundService: NewBackgroundService(name, logger),
		interval:          interval,
		task:              task,
	}
}

// Start 运行定时循环，任务失败只记录日志
func (s *TimedHostedService) Start(ctx context.Context) error {
	defer s.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				s.logger.Error("timed task failed", logging.F("error", err.Error()))
			}
		case <-s.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
