package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerProvider 把日志转发给 zap
type ZapLoggerProvider struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewZapLoggerProvider 包装一个已有的 zap.Logger，base 为 nil 时使用 zap.NewProduction
func NewZapLoggerProvider(base *zap.Logger) (*ZapLoggerProvider, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if base == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		var err error
		if base, err = cfg.Build(); err != nil {
			return nil, err
		}
	}
	return &ZapLoggerProvider{base: base, level: level}, nil
}

func (p *ZapLoggerProvider) CreateLogger(category string) Logger {
	return &zapLogger{provider: p, l: p.base.Named(category), category: category}
}

func (p *ZapLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.SetLevel(toZapLevel(level))
}

// Close 刷新 zap 缓冲
func (p *ZapLoggerProvider) Close() error {
	_ = p.base.Sync()
	return nil
}

type zapLogger struct {
	provider *ZapLoggerProvider
	l        *zap.Logger
	category string
}

func (z *zapLogger) Trace(msg string, fields ...Field) { z.Log(LogLevelTrace, msg, fields...) }
func (z *zapLogger) Debug(msg string, fields ...Field) { z.Log(LogLevelDebug, msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...Field)  { z.Log(LogLevelInfo, msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...Field)  { z.Log(LogLevelWarn, msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...Field) { z.Log(LogLevelError, msg, fields...) }

func (z *zapLogger) Fatal(msg string, fields ...Field) {
	z.Log(LogLevelFatal, msg, fields...)
	exit(1)
}

func (z *zapLogger) Log(level LogLevel, msg string, fields ...Field) {
	zl := toZapLevel(level)
	if !z.provider.level.Enabled(zl) {
		return
	}
	if ce := z.l.Check(zl, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func (z *zapLogger) WithFields(fields ...Field) Logger {
	return &zapLogger{provider: z.provider, l: z.l.With(toZapFields(fields)...), category: z.category}
}

func (z *zapLogger) WithCategory(category string) Logger {
	return &zapLogger{provider: z.provider, l: z.provider.base.Named(category), category: category}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// toZapLevel zap 没有 Trace，映射为 Debug；Fatal 映射为 Error，退出由调用方处理
func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelTrace, LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError, LogLevelFatal:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel + 1
	}
}
