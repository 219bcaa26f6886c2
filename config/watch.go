package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchOptions 热更新参数
type WatchOptions struct {
	Enabled      bool          // 是否启用热更新
	CooldownTime time.Duration // 冷却时间，避免频繁更新
}

// DefaultWatchOptions 默认热更新参数
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		Enabled:      true,
		CooldownTime: 5 * time.Second,
	}
}

// Watcher 基于 fsnotify 监听配置文件变化，变化后重新加载并回调。
// 加载失败的新配置只记日志，不打断旧配置。
type Watcher struct {
	opts       WatchOptions
	configPath string
	watcher    *fsnotify.Watcher
	logger     *zap.Logger
	onUpdate   func(AppConfig)
	lastReload time.Time
	mu         sync.Mutex
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewWatcher 创建配置热更新器
func NewWatcher(configPath string, opts WatchOptions, log *zap.Logger, onUpdate func(AppConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		opts:       opts,
		configPath: configPath,
		watcher:    fw,
		logger:     log,
		onUpdate:   onUpdate,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}, nil
}

// Start 启动热更新监听
func (w *Watcher) Start(ctx context.Context) error {
	if !w.opts.Enabled {
		return nil
	}

	if err := w.watcher.Add(w.configPath); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	go w.watch(ctx)

	return nil
}

// Stop 停止热更新
func (w *Watcher) Stop() error {
	if !w.opts.Enabled {
		if w.watcher != nil {
			return w.watcher.Close()
		}
		return nil
	}

	select {
	case <-w.stopChan:
		// 已经停止
	default:
		close(w.stopChan)
	}

	// 等待 goroutine 结束（带超时）
	select {
	case <-w.doneChan:
	case <-time.After(1 * time.Second):
		// 超时，可能 watch goroutine 没有启动
	}

	if w.watcher != nil {
		return w.watcher.Close()
	}

	return nil
}

// watch 监听文件变化
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// 只处理写入和创建事件
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.handleConfigChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// handleConfigChange 处理配置变化
func (w *Watcher) handleConfigChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 检查冷却时间
	if time.Since(w.lastReload) < w.opts.CooldownTime {
		return
	}

	cfg, err := LoadWithEnvOverrides(w.configPath)
	if err != nil {
		w.logger.Error("failed to reload config", zap.Error(err))
		return
	}

	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
	w.lastReload = time.Now()
	w.logger.Info("config reloaded", zap.String("path", w.configPath))
}

// GetLastReloadTime 获取最后重载时间
func (w *Watcher) GetLastReloadTime() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastReload
}
