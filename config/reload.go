package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/logging"
)

// ReloadableConfiguration 可重新加载的配置
// Reload 重新读取全部配置源并整体替换数据，随后按注册顺序调用 OnReload 回调。
type ReloadableConfiguration struct {
	*configuration
	sources []ConfigurationSource

	mu        sync.Mutex
	callbacks []func()
}

// OnReload 注册重新加载后的回调
func (r *ReloadableConfiguration) OnReload(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.callbacks = append(r.callbacks, fn)
	r.mu.Unlock()
}

// Reload 重新加载配置，失败时保留旧数据
func (r *ReloadableConfiguration) Reload() error {
	data, err := loadSources(r.sources)
	if err != nil {
		return err
	}
	r.store(data)

	r.mu.Lock()
	callbacks := make([]func(), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// WatchOptions 配置文件监听选项
type WatchOptions struct {
	// Debounce 合并连续文件事件的时间窗口，默认 200ms
	Debounce time.Duration
	// Logger 记录监听错误和重新加载失败
	Logger logging.Logger
}

// Watch 监听文件配置源，文件变化时调用 Reload，直到 ctx 结束
// 监听的是文件所在目录，这样编辑器以重命名方式保存的文件也能被捕获。
func (r *ReloadableConfiguration) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	files := make(map[string]struct{})
	for _, s := range r.sources {
		if fs, ok := s.(fileSource); ok {
			if abs, err := filepath.Abs(fs.FilePath()); err == nil {
				files[abs] = struct{}{}
			}
		}
	}
	if len(files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "config: create watcher")
	}
	defer watcher.Close()

	dirs := make(map[string]struct{})
	for f := range files {
		dir := filepath.Dir(f)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "config: watch %s", dir)
		}
		dirs[dir] = struct{}{}
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		if err := r.Reload(); err != nil {
			logger.Warn("configuration reload failed", logging.Field{Key: "error", Value: err.Error()})
			return
		}
		logger.Info("configuration reloaded")
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := files[name]; !watched {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(opts.Debounce, reload)
			timerMu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("configuration watcher error", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
