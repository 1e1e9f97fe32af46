package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gocrud/ioc/logging"
)

// gormLogger 把 GORM 日志写入运行时 Logger
type gormLogger struct {
	logger        logging.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(logger logging.Logger, slow time.Duration) *gormLogger {
	return &gormLogger{logger: logger, level: gormlogger.Warn, slowThreshold: slow}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	fields := func() []logging.Field {
		sql, rows := fc()
		return []logging.Field{
			logging.F("sql", sql),
			logging.F("rows", rows),
			logging.F("elapsed", elapsed.String()),
		}
	}
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		l.logger.Error("sql failed", append(fields(), logging.F("error", err.Error()))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.logger.Warn("slow sql", fields()...)
	case l.level >= gormlogger.Info:
		l.logger.Debug("sql", fields()...)
	}
}
