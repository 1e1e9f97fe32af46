package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// Host Web 主机，作为托管服务运行
type Host struct {
	options   Options
	engine    *gin.Engine
	container *di.Container
	logger    logging.Logger
	routes    []func(router gin.IRouter)

	mountOnce sync.Once
	mountErr  error

	mu     sync.Mutex
	server *http.Server
	addr   string
	ready  chan struct{}
}

// NewHost 创建 Web 主机，控制器从 c 中的 ControllersToken 解析
func NewHost(c *di.Container, logger logging.Logger, b *Builder) *Host {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithCategory("web")
	opts := *b.options

	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	engine := gin.New()
	engine.Use(gin.CustomRecoveryWithWriter(nil, func(ctx *gin.Context, err any) {
		logger.Error("handler panicked", logging.F("panic", fmt.Sprint(err)), logging.F("path", ctx.Request.URL.Path))
		ctx.AbortWithStatus(http.StatusInternalServerError)
	}))
	if opts.AccessLog {
		engine.Use(requestLogger(logger))
	}
	if opts.RequestScope {
		engine.Use(RequestScope(c, logger))
	}
	engine.Use(b.middleware...)
	for _, setup := range b.engineSetup {
		setup(engine)
	}

	return &Host{
		options:   opts,
		engine:    engine,
		container: c,
		logger:    logger,
		routes:    b.routes,
		ready:     make(chan struct{}),
	}
}

// Engine 返回 Gin 引擎
func (h *Host) Engine() *gin.Engine { return h.engine }

// Handler 挂载路由并返回 http.Handler，可直接用于 httptest
func (h *Host) Handler() (http.Handler, error) {
	if err := h.mount(); err != nil {
		return nil, err
	}
	return h.engine, nil
}

// Address 返回实际监听地址，Start 之前为空
func (h *Host) Address() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// Ready 在开始监听后关闭
func (h *Host) Ready() <-chan struct{} { return h.ready }

func (h *Host) listenAddress() string {
	if h.options.Address != "" {
		return h.options.Address
	}
	return fmt.Sprintf(":%d", h.options.Port)
}

// mount 挂载路由函数和控制器，只执行一次
func (h *Host) mount() error {
	h.mountOnce.Do(func() {
		for _, fn := range h.routes {
			fn(h.engine)
		}
		if !h.container.Has(ControllersToken) {
			return
		}
		controllers, err := di.ResolveMany[Controller](h.container, ControllersToken)
		if err != nil {
			h.mountErr = errors.Wrap(err, "web: resolve controllers")
			return
		}
		for _, ctrl := range controllers {
			ctrl.MountRoutes(h.engine)
			h.logger.Debug("controller mounted", logging.F("controller", fmt.Sprintf("%T", ctrl)))
		}
	})
	return h.mountErr
}

// Start 挂载路由并开始监听，阻塞直到 Stop
func (h *Host) Start(context.Context) error {
	if err := h.mount(); err != nil {
		return err
	}
	addr := h.listenAddress()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "web: listen %s", addr)
	}

	server := &http.Server{
		Handler:      h.engine,
		ReadTimeout:  h.options.ReadTimeout,
		WriteTimeout: h.options.WriteTimeout,
		IdleTimeout:  h.options.IdleTimeout,
	}
	h.mu.Lock()
	if h.server != nil {
		h.mu.Unlock()
		_ = ln.Close()
		return errors.New("web: host already started")
	}
	h.server = server
	h.addr = ln.Addr().String()
	h.mu.Unlock()
	close(h.ready)

	h.logger.Info("web host started", logging.F("address", ln.Addr().String()))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "web: serve")
	}
	return nil
}

// Stop 优雅关闭，ShutdownTimeout 和 ctx 中较早的截止时间生效
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	server := h.server
	h.mu.Unlock()
	if server == nil {
		return nil
	}
	if h.options.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.options.ShutdownTimeout)
		defer cancel()
	}
	if err := server.Shutdown(ctx); err != nil {
		h.logger.Error("web host shutdown failed", logging.F("error", err.Error()))
		return errors.Wrap(err, "web: shutdown")
	}
	h.logger.Info("web host stopped")
	return nil
}
