package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var exit = os.Exit

// sink 接收格式化前的日志条目
type sink interface {
	WriteLog(entry *LogEntry)
}

// syncSink 同步写入 io.Writer
type syncSink struct {
	mu        sync.Mutex
	writer    io.Writer
	formatter Formatter
}

func (s *syncSink) WriteLog(entry *LogEntry) {
	data, err := s.formatter.Format(entry)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
}

// writerLogger 控制台与文件日志共用的实现
type writerLogger struct {
	sink     sink
	level    *levelVar
	category string
	fields   []Field
}

func (l *writerLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *writerLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *writerLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *writerLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *writerLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *writerLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	exit(1)
}

func (l *writerLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.level.get() {
		return
	}
	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)
	l.sink.WriteLog(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   all,
	})
}

func (l *writerLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &writerLogger{sink: l.sink, level: l.level, category: l.category, fields: merged}
}

func (l *writerLogger) WithCategory(category string) Logger {
	return &writerLogger{sink: l.sink, level: l.level, category: category, fields: l.fields}
}

// levelVar 提供者与其创建的 Logger 共享的级别
type levelVar struct {
	mu    sync.RWMutex
	level LogLevel
}

func (v *levelVar) get() LogLevel {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.level
}

func (v *levelVar) set(level LogLevel) {
	v.mu.Lock()
	v.level = level
	v.mu.Unlock()
}

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	// JSON 输出 JSON 行而不是文本
	JSON   bool
	Output io.Writer
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	sink  sink
	level *levelVar
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	var formatter Formatter
	if options.JSON {
		formatter = NewJsonFormatter()
	} else {
		tf := NewTextFormatter()
		tf.IncludeTimestamp = options.IncludeTimestamp
		tf.ColorOutput = options.ColorOutput
		if options.TimestampFormat != "" {
			tf.TimestampFormat = options.TimestampFormat
		}
		formatter = tf
	}
	return &ConsoleLoggerProvider{
		sink:  &syncSink{writer: options.Output, formatter: formatter},
		level: &levelVar{level: LogLevelInfo},
	}
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	return &writerLogger{sink: p.sink, level: p.level, category: category}
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Path string
	// BufferSize 异步队列长度
	BufferSize int
	// JSON 输出 JSON 行而不是文本
	JSON bool
}

// FileLoggerProvider 文件日志提供者，通过 AsyncWriter 异步写入
type FileLoggerProvider struct {
	file   *os.File
	writer *AsyncWriter
	level  *levelVar
}

// NewFileLoggerProvider 打开（或创建）日志文件
func NewFileLoggerProvider(options FileLoggerOptions) (*FileLoggerProvider, error) {
	file, err := os.OpenFile(options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "logging: open %s", options.Path)
	}
	var formatter Formatter = NewTextFormatter()
	if options.JSON {
		formatter = NewJsonFormatter()
	}
	return &FileLoggerProvider{
		file:   file,
		writer: NewAsyncWriter(file, formatter, options.BufferSize),
		level:  &levelVar{level: LogLevelInfo},
	}, nil
}

func (p *FileLoggerProvider) CreateLogger(category string) Logger {
	return &writerLogger{sink: p.writer, level: p.level, category: category}
}

func (p *FileLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}

// Close 写完队列中的日志并关闭文件
func (p *FileLoggerProvider) Close() error {
	if err := p.writer.Close(); err != nil {
		return err
	}
	return p.file.Close()
}
