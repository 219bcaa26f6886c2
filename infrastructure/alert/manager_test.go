package alert

import (
	"errors"
	"sync"
	"testing"
	"time"

	"stock-advisor-go/market"
)

// mockChannel 记录收到的告警。
type mockChannel struct {
	name   string
	mu     sync.Mutex
	alerts []Alert
	err    error
}

func newMockChannel(name string) *mockChannel {
	return &mockChannel{name: name}
}

func (c *mockChannel) Send(alert Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.alerts = append(c.alerts, alert)
	return nil
}

func (c *mockChannel) Name() string { return c.name }

func (c *mockChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

func gapEvent(symbol string, prev, cur int) market.GapEvent {
	return market.GapEvent{
		Symbol:           symbol,
		PreviousSerialNo: prev,
		CurrentSerialNo:  cur,
		MissingStart:     prev + 1,
		MissingEnd:       cur - 1,
		TickTime:         time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		DetectedAt:       time.Now(),
	}
}

func TestNotifySerialNoGap(t *testing.T) {
	mock := newMockChannel("mock")
	mgr := NewManager([]Channel{mock}, time.Minute)

	mgr.NotifySerialNoGap(gapEvent("2327", 10, 13))

	if mock.count() != 1 {
		t.Fatalf("expected 1 alert, got %d", mock.count())
	}
	alert := mock.alerts[0]
	if alert.Level != "WARNING" {
		t.Errorf("level = %s, want WARNING", alert.Level)
	}
	if alert.Fields["missing_count"] != 2 {
		t.Errorf("missing_count = %v, want 2", alert.Fields["missing_count"])
	}
	if alert.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestNotifySerialNoGapCooldownPerSymbol(t *testing.T) {
	mock := newMockChannel("mock")
	mgr := NewManager([]Channel{mock}, time.Hour)

	mgr.NotifySerialNoGap(gapEvent("2327", 10, 13))
	mgr.NotifySerialNoGap(gapEvent("2327", 13, 20)) // 冷却期内，丢弃
	mgr.NotifySerialNoGap(gapEvent("2330", 5, 8))   // 另一档股票不受影响

	if mock.count() != 2 {
		t.Fatalf("expected 2 alerts, got %d", mock.count())
	}
}

func TestSendAlertAllChannelsFailed(t *testing.T) {
	bad := newMockChannel("bad")
	bad.err = errors.New("down")
	mgr := NewManager([]Channel{bad}, time.Minute)

	if err := mgr.SendAlert(Alert{Level: "ERROR", Message: "x"}); err == nil {
		t.Fatalf("expected error when every channel fails")
	}
}

func TestSendAlertPartialFailureTolerated(t *testing.T) {
	bad := newMockChannel("bad")
	bad.err = errors.New("down")
	good := newMockChannel("good")
	mgr := NewManager([]Channel{bad, good}, time.Minute)

	if err := mgr.SendAlert(Alert{Level: "WARNING", Message: "x"}); err != nil {
		t.Fatalf("partial failure should not error: %v", err)
	}
	if good.count() != 1 {
		t.Fatalf("surviving channel missed the alert")
	}
}

func TestThrottler(t *testing.T) {
	th := NewThrottler(time.Hour)
	if !th.Allow("k") {
		t.Fatal("first send must pass")
	}
	if th.Allow("k") {
		t.Fatal("second send within interval must be throttled")
	}
	th.Reset("k")
	if !th.Allow("k") {
		t.Fatal("send after reset must pass")
	}
	th.Clear()
	if !th.Allow("k") {
		t.Fatal("send after clear must pass")
	}
}
