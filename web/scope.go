package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// scopeKey gin.Context 中保存请求容器的键
const scopeKey = "ioc.scope"

// RequestScope 为每个请求创建一个子容器，请求结束后释放
//
// 子容器中注册了 *gin.Context 和请求的 context.Context，
// 容器作用域的服务在同一请求内共享，在请求结束时执行清理钩子。
func RequestScope(root *di.Container, logger logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Nop()
	}
	registry := root.Registry()
	return func(ctx *gin.Context) {
		scope, err := registry.NewContainer(nil)
		if err != nil {
			logger.Error("request scope failed", logging.F("error", err.Error()))
			ctx.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := registry.RemoveContainer(scope); err != nil {
				logger.Warn("request scope cleanup failed", logging.F("error", err.Error()))
			}
		}()

		_ = scope.SetValue(di.TypeOf[*gin.Context](), ctx)
		_ = scope.SetValue(di.TypeOf[context.Context](), ctx.Request.Context())
		ctx.Set(scopeKey, scope)
		ctx.Next()
	}
}

// Scope 返回请求容器，未启用 RequestScope 时返回 nil
func Scope(ctx *gin.Context) *di.Container {
	v, ok := ctx.Get(scopeKey)
	if !ok {
		return nil
	}
	c, _ := v.(*di.Container)
	return c
}

// Resolve 从请求容器解析类型 T
func Resolve[T any](ctx *gin.Context) (T, error) {
	scope := Scope(ctx)
	if scope == nil {
		var zero T
		return zero, errors.New("web: request scope is not enabled")
	}
	return di.ResolveType[T](scope)
}

// Handle 把任意函数适配为 gin.HandlerFunc，参数从请求容器解析
//
//	router.GET("/users/:id", web.Handle(func(c *gin.Context, svc *UserService) error {
//	    return svc.Render(c)
//	}))
//
// 返回的 error 以 500 响应，解析失败同样如此。
func Handle(fn any) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		scope := Scope(ctx)
		if scope == nil {
			_ = ctx.AbortWithError(http.StatusInternalServerError, errors.New("web: request scope is not enabled"))
			return
		}
		if err := di.Invoke(scope, fn); err != nil {
			_ = ctx.Error(err)
			if !ctx.Writer.Written() {
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
		}
	}
}
