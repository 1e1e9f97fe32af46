package hosting

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// Manager 启动和停止容器中登记的全部托管服务
type Manager struct {
	container *di.Container
	logger    logging.Logger

	mu       sync.Mutex
	services []HostedService
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager 创建托管服务管理器，服务从 c 中的 ServicesToken 解析
func NewManager(c *di.Container, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{container: c, logger: logger.WithCategory("hosting")}
}

// Services 返回已启动的服务
func (m *Manager) Services() []HostedService {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HostedService, len(m.services))
	copy(out, m.services)
	return out
}

// Start 解析并并发启动全部托管服务
// 服务的上下文独立于 ctx，在 Stop 时取消；服务异常退出的错误写入返回的通道。
func (m *Manager) Start(ctx context.Context) (<-chan error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil, errors.New("hosting: manager already started")
	}

	services, err := di.ResolveMany[HostedService](m.container, ServicesToken)
	if err != nil && !noServices(err) {
		return nil, errors.Wrap(err, "hosting: resolve services")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.services = services

	errCh := make(chan error, len(services))
	m.logger.Info("starting hosted services", logging.F("count", len(services)))
	for i, svc := range services {
		m.wg.Add(1)
		go func(index int, svc HostedService) {
			defer m.wg.Done()
			err := svc.Start(runCtx)
			switch {
			case err == nil:
				m.logger.Debug("hosted service completed", logging.F("index", index))
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				m.logger.Debug("hosted service stopped", logging.F("index", index))
			default:
				m.logger.Error("hosted service failed", logging.F("index", index), logging.F("error", err.Error()))
				errCh <- errors.Wrapf(err, "hosting: service %d (%T)", index, svc)
			}
		}(i, svc)
	}
	return errCh, nil
}

// Stop 取消服务上下文，逆序并发调用 Stop，并等待 Start 返回或 ctx 超时
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	services, cancel := m.services, m.cancel
	m.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for i := len(services) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(index int, svc HostedService) {
			defer wg.Done()
			if err := svc.Stop(ctx); err != nil {
				m.logger.Error("failed to stop hosted service", logging.F("index", index), logging.F("error", err.Error()))
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		}(i, services[i])
	}
	wg.Wait()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("hosted services stopped", logging.F("count", len(services)))
	case <-ctx.Done():
		if firstErr == nil {
			firstErr = ctx.Err()
		}
	}
	return firstErr
}

// noServices 报告 err 是否只是没有登记任何托管服务
// 服务构造时缺少依赖同样是 ServiceNotFoundError，需要按标识区分。
func noServices(err error) bool {
	var nf *di.ServiceNotFoundError
	return errors.As(err, &nf) && nf.ID == ServicesToken
}
