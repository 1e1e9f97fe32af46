package cron

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/ioc/logging"
)

// cronLogger 把运行时 Logger 适配为 cron.Logger
type cronLogger struct {
	logger logging.Logger
	// verbose 为 false 时丢弃调度器的 Info 日志
	verbose bool
}

func newCronLogger(logger logging.Logger, verbose bool) cron.Logger {
	return &cronLogger{logger: logger, verbose: verbose}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	if l.verbose {
		l.logger.Debug(msg, convertToFields(keysAndValues)...)
	}
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := append(convertToFields(keysAndValues), logging.F("error", err.Error()))
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []any) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.F(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
