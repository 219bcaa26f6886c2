package alert

import (
	"fmt"
	"sync"
	"time"

	"stock-advisor-go/market"
)

// Alert 告警信息
type Alert struct {
	Level     string                 // "INFO", "WARNING", "ERROR", "CRITICAL"
	Message   string                 // 告警消息
	Timestamp time.Time              // 告警时间
	Fields    map[string]interface{} // 附加字段
}

// Channel 告警通道接口
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Manager 告警管理器。缺号事件按股票限流后推送到全部通道。
type Manager struct {
	channels []Channel
	throttle *Throttler
	mu       sync.RWMutex
}

// Throttler 告警限流器
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	mu       sync.RWMutex
}

// NewThrottler 创建限流器
func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
	}
}

// Allow 检查是否允许发送（限流）
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	lastTime, exists := t.lastSent[key]

	if !exists || now.Sub(lastTime) >= t.interval {
		t.lastSent[key] = now
		return true
	}

	return false
}

// Reset 重置限流器
func (t *Throttler) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSent, key)
}

// Clear 清空所有限流记录
func (t *Throttler) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSent = make(map[string]time.Time)
}

// NewManager 创建告警管理器。cooldown 为同一股票两次告警的最小间隔。
func NewManager(channels []Channel, cooldown time.Duration) *Manager {
	return &Manager{
		channels: channels,
		throttle: NewThrottler(cooldown),
	}
}

// NotifySerialNoGap 推送缺号告警。同一股票冷却期内的重复事件静默丢弃；
// 通道投递失败是通道自己的事，这里不重试。
func (m *Manager) NotifySerialNoGap(ev market.GapEvent) {
	if !m.throttle.Allow(ev.Symbol) {
		return
	}

	_ = m.SendAlert(Alert{
		Level: "WARNING",
		Message: fmt.Sprintf("[%s] 序号缺号 %d-%d（共 %d 笔），当前序号 %d",
			ev.Symbol, ev.MissingStart, ev.MissingEnd, ev.MissingCount(), ev.CurrentSerialNo),
		Timestamp: ev.DetectedAt,
		Fields: map[string]interface{}{
			"symbol":        ev.Symbol,
			"previous":      ev.PreviousSerialNo,
			"current":       ev.CurrentSerialNo,
			"missing_start": ev.MissingStart,
			"missing_end":   ev.MissingEnd,
			"missing_count": ev.MissingCount(),
			"tick_time":     ev.TickTime,
		},
	})
}

// SendAlert 发送告警到全部通道，所有通道失败才返回错误。
func (m *Manager) SendAlert(alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var lastErr error
	successCount := 0

	for _, ch := range m.channels {
		if err := ch.Send(alert); err != nil {
			lastErr = fmt.Errorf("channel %s failed: %w", ch.Name(), err)
		} else {
			successCount++
		}
	}

	if successCount == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// AddChannel 添加告警通道
func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
}

// GetChannels 返回通道名称清单
func (m *Manager) GetChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}
