package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Options Web 主机选项，可以从配置节绑定
type Options struct {
	// Address 监听地址，例如 ":8080"；为空时使用 Port
	Address string `json:"address"`
	Port    int    `json:"port"`
	// Mode gin 模式：debug、release、test
	Mode            string        `json:"mode"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	IdleTimeout     time.Duration `json:"idleTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
	// RequestScope 为每个请求创建子容器
	RequestScope bool `json:"requestScope"`
	// AccessLog 记录每个请求
	AccessLog bool `json:"accessLog"`
}

// NewDefaultOptions 创建默认选项
func NewDefaultOptions() *Options {
	return &Options{
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		RequestScope:    true,
		AccessLog:       true,
	}
}

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	options     *Options
	sections    []string
	middleware  []gin.HandlerFunc
	routes      []func(router gin.IRouter)
	controllers []any
	engineSetup []func(engine *gin.Engine)
}

// NewBuilder 创建 Web 构建器
func NewBuilder() *Builder {
	return &Builder{options: NewDefaultOptions()}
}

// Options 返回可修改的选项
func (b *Builder) Options() *Options {
	return b.options
}

// UsePort 设置端口
func (b *Builder) UsePort(port int) *Builder {
	b.options.Port = port
	b.options.Address = ""
	return b
}

// UseAddress 设置监听地址
func (b *Builder) UseAddress(addr string) *Builder {
	b.options.Address = addr
	return b
}

// Use 使用全局中间件，在请求容器之后执行
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.middleware = append(b.middleware, middleware...)
	return b
}

// AddControllers 注册控制器，见 RegisterController
func (b *Builder) AddControllers(controllers ...any) *Builder {
	b.controllers = append(b.controllers, controllers...)
	return b
}

// Routes 注册路由函数，在控制器之前挂载
func (b *Builder) Routes(fn func(router gin.IRouter)) *Builder {
	b.routes = append(b.routes, fn)
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Routes(func(r gin.IRouter) { r.GET(path, handlers...) })
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Routes(func(r gin.IRouter) { r.POST(path, handlers...) })
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Routes(func(r gin.IRouter) { r.PUT(path, handlers...) })
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Routes(func(r gin.IRouter) { r.DELETE(path, handlers...) })
}

// Static 服务静态文件
func (b *Builder) Static(relativePath, root string) *Builder {
	return b.Routes(func(r gin.IRouter) { r.Static(relativePath, root) })
}

// StaticFS 服务静态文件系统
func (b *Builder) StaticFS(relativePath string, fs http.FileSystem) *Builder {
	return b.Routes(func(r gin.IRouter) { r.StaticFS(relativePath, fs) })
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engineSetup = append(b.engineSetup, func(e *gin.Engine) { e.NoRoute(handlers...) })
	return b
}

// ConfigureEngine 直接定制 Gin 引擎（用于高级定制）
func (b *Builder) ConfigureEngine(fn func(engine *gin.Engine)) *Builder {
	b.engineSetup = append(b.engineSetup, fn)
	return b
}
