// Package web 基于 Gin 提供 Web 主机
//
// 控制器登记在 ControllersToken 下，Host 作为托管服务运行，
// 启动时解析全部控制器并挂载路由。每个请求可以拥有自己的子容器，见 RequestScope。
package web

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
)

// BuilderOption 用于配置 Web Builder
type BuilderOption func(*Builder)

// WithPort 设置端口
func WithPort(port int) BuilderOption {
	return func(b *Builder) { b.UsePort(port) }
}

// WithAddress 设置监听地址，例如 "127.0.0.1:0"
func WithAddress(addr string) BuilderOption {
	return func(b *Builder) { b.UseAddress(addr) }
}

// WithControllers 添加控制器
func WithControllers(controllers ...any) BuilderOption {
	return func(b *Builder) { b.AddControllers(controllers...) }
}

// WithMiddleware 添加全局中间件
func WithMiddleware(middleware ...gin.HandlerFunc) BuilderOption {
	return func(b *Builder) { b.Use(middleware...) }
}

// WithRoutes 注册路由函数
func WithRoutes(fn func(router gin.IRouter)) BuilderOption {
	return func(b *Builder) { b.Routes(fn) }
}

// WithOptions 修改主机选项
func WithOptions(configure func(*Options)) BuilderOption {
	return func(b *Builder) { configure(b.options) }
}

// FromConfig 从配置节读取主机选项，需要先应用 config.New
func FromConfig(section string) BuilderOption {
	return func(b *Builder) { b.sections = append(b.sections, section) }
}

// New 启用 Web 能力
//
// *Host 和 *gin.Engine 以 singleton 注册，Host 作为托管服务运行。
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		b := NewBuilder()
		for _, opt := range opts {
			opt(b)
		}
		if len(b.sections) > 0 {
			cfg := config.FromRuntime(rt)
			if cfg == nil {
				return errors.New("web: FromConfig needs config.New")
			}
			for _, section := range b.sections {
				if err := cfg.Bind(section, b.options); err != nil {
					return err
				}
			}
		}

		for _, ctrl := range b.controllers {
			if err := RegisterController(rt.Container, ctrl); err != nil {
				return err
			}
		}

		host := NewHost(rt.Container, rt.Logger, b)
		values := map[any]any{
			di.TypeOf[*Host]():       host,
			di.TypeOf[*gin.Engine](): host.Engine(),
		}
		for id, v := range values {
			if err := rt.Container.Set(di.ServiceOptions{ID: id, Scope: di.ScopeSingleton, Value: v}); err != nil {
				return err
			}
		}
		rt.Features.Set(host)
		return hosting.Register(rt.Container, host)
	}
}
