package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncWriter 异步日志写入器，格式化和写入在后台协程中完成
type AsyncWriter struct {
	writer     io.Writer
	formatter  Formatter
	entryCh    chan *LogEntry
	wg         sync.WaitGroup
	closeOnce  sync.Once
	errHandler func(error)
}

// NewAsyncWriter 创建新的异步写入器
func NewAsyncWriter(writer io.Writer, formatter Formatter, bufferSize int) *AsyncWriter {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	w := &AsyncWriter{
		writer:    writer,
		formatter: formatter,
		entryCh:   make(chan *LogEntry, bufferSize),
	}
	w.wg.Add(1)
	go w.process()
	return w
}

// WriteLog 写入日志条目，队列满时阻塞，不丢日志
func (w *AsyncWriter) WriteLog(entry *LogEntry) {
	w.entryCh <- entry
}

// Close 排空队列后关闭写入器
func (w *AsyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.entryCh)
	})
	w.wg.Wait()
	return nil
}

// SetErrorHandler 设置错误处理函数，需在写入前调用
func (w *AsyncWriter) SetErrorHandler(handler func(error)) {
	w.errHandler = handler
}

func (w *AsyncWriter) process() {
	defer w.wg.Done()
	for entry := range w.entryCh {
		data, err := w.formatter.Format(entry)
		if err == nil {
			_, err = w.writer.Write(data)
		}
		if err != nil {
			w.handleError(err)
		}
	}
}

func (w *AsyncWriter) handleError(err error) {
	if w.errHandler != nil {
		w.errHandler(err)
		return
	}
	fmt.Fprintf(os.Stderr, "logging: async write failed: %v\n", err)
}
