package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 配置变更回调，err 非 nil 表示重载失败（旧配置仍生效）
type WatchCallback func(cfg Config, err error)

// Watcher 配置文件监视器
type Watcher struct {
	cfg      *koanfConfig
	fsw      *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	started bool
	stopped bool
}

// WatchOption 监视器选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watch 创建监视器，调用 Start 后开始工作，用完调用 Stop。
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	if err != nil { return err }
//	w.Start()
//	defer w.Stop()
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, fmt.Errorf("xconf: unsupported config type %T", cfg)
	}
	if kc.path == "" {
		return nil, ErrNotReloadable
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	// 监视目录而非文件：编辑器保存时可能先删除再创建
	dir := filepath.Dir(kc.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		cfg:      kc,
		fsw:      fsw,
		callback: callback,
		debounce: DefaultDebounce,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start 在后台 goroutine 中开始监视，重复调用无效
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.run()
}

// Stop 停止监视，可重复调用，也可以在回调中调用。
// 返回后不会再有新的回调触发。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.cancel()
	return w.fsw.Close()
}

func (w *Watcher) run() {
	filename := filepath.Base(w.cfg.path)
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.notify(fmt.Errorf("xconf: watch error: %w", err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	// Rename 对应 vim/emacs 的原子写入
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.notify(w.cfg.Reload())
	})
}

func (w *Watcher) notify(err error) {
	if w.ctx.Err() != nil || w.callback == nil {
		return
	}
	w.callback(w.cfg, err)
}
