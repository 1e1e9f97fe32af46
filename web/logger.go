package web

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/ioc/logging"
)

// requestLogger 记录每个请求的状态码和耗时
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		fields := []logging.Field{
			logging.F("method", ctx.Request.Method),
			logging.F("path", ctx.Request.URL.Path),
			logging.F("status", status),
			logging.F("elapsed", time.Since(start).String()),
		}
		if len(ctx.Errors) > 0 {
			fields = append(fields, logging.F("error", ctx.Errors.String()))
		}
		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
