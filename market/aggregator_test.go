package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func tick(symbol string, ts time.Time, price, vol string) Tick {
	return Tick{Symbol: symbol, Time: ts, TradeDate: ts.Truncate(24 * time.Hour), Price: dec(price), Volume: dec(vol)}
}

func TestBarAggregatorSinglePeriod(t *testing.T) {
	agg, err := NewBarAggregator("2327", time.Minute, nil)
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if closed := agg.Update(tick("2327", base.Add(5*time.Second), "100", "1")); closed != nil {
		t.Fatalf("first tick should not close a bar")
	}
	agg.Update(tick("2327", base.Add(10*time.Second), "105", "2"))
	agg.Update(tick("2327", base.Add(20*time.Second), "99", "1"))
	closed := agg.Update(tick("2327", base.Add(40*time.Second), "101", "3"))
	if closed != nil {
		t.Fatalf("same period must not emit, got %v", closed)
	}

	// 跨界 tick 定型上一根
	closed = agg.Update(tick("2327", base.Add(70*time.Second), "102", "1"))
	if closed == nil {
		t.Fatalf("expected closed bar on boundary crossing")
	}
	if !closed.Time.Equal(base.Add(time.Minute)) {
		t.Fatalf("bar end = %v, want %v", closed.Time, base.Add(time.Minute))
	}
	if !closed.Open.Equal(dec("100")) || !closed.High.Equal(dec("105")) ||
		!closed.Low.Equal(dec("99")) || !closed.Close.Equal(dec("101")) {
		t.Fatalf("unexpected OHLC %v", closed)
	}
	if !closed.Volume.Equal(dec("7")) {
		t.Fatalf("volume = %s, want 7", closed.Volume)
	}
}

func TestBarAggregatorBoundaryCrossing(t *testing.T) {
	agg, _ := NewBarAggregator("2327", time.Minute, nil)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	agg.Update(tick("2327", base.Add(5*time.Second), "100", "1"))
	agg.Update(tick("2327", base.Add(30*time.Second), "105", "2"))
	closed := agg.Update(tick("2327", base.Add(70*time.Second), "102", "1"))
	if closed == nil {
		t.Fatalf("expected exactly one closed bar")
	}
	if !closed.Time.Equal(base.Add(time.Minute)) {
		t.Fatalf("bar end = %v, want 09:01:00", closed.Time)
	}
	if !closed.Open.Equal(dec("100")) || !closed.High.Equal(dec("105")) ||
		!closed.Low.Equal(dec("100")) || !closed.Close.Equal(dec("105")) ||
		!closed.Volume.Equal(dec("3")) {
		t.Fatalf("unexpected closed bar %v", closed)
	}

	// 新周期以 102 开盘，再次跨界验证
	closed = agg.Update(tick("2327", base.Add(130*time.Second), "103", "1"))
	if closed == nil || !closed.Open.Equal(dec("102")) {
		t.Fatalf("in-progress bar should start at 102, got %v", closed)
	}
}

func TestBarAggregatorStaleTickIgnored(t *testing.T) {
	agg, _ := NewBarAggregator("2327", time.Minute, nil)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	agg.Update(tick("2327", base.Add(70*time.Second), "100", "1"))
	// 回到已结束的旧周期，必须丢弃且不污染最高最低价
	if closed := agg.Update(tick("2327", base.Add(5*time.Second), "999", "1")); closed != nil {
		t.Fatalf("stale tick must not emit")
	}
	closed := agg.Update(tick("2327", base.Add(130*time.Second), "101", "1"))
	if closed == nil {
		t.Fatalf("expected closed bar")
	}
	if !closed.High.Equal(dec("100")) {
		t.Fatalf("stale tick corrupted high: %s", closed.High)
	}
}

func TestBarAggregatorSymbolHandling(t *testing.T) {
	agg, _ := NewBarAggregator(" tse:2327 ", time.Minute, nil)
	if agg.Symbol() != "tse:2327" {
		t.Fatalf("original casing not preserved: %q", agg.Symbol())
	}
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// 大小写不同仍路由到同一聚合器
	agg.Update(tick("TSE:2327", base.Add(time.Second), "100", "1"))
	closed := agg.Update(tick("tse:2327", base.Add(61*time.Second), "101", "1"))
	if closed == nil || closed.Symbol != "tse:2327" {
		t.Fatalf("case-insensitive routing broken: %v", closed)
	}

	// 其他股票的 tick 直接丢弃
	if closed := agg.Update(tick("2330", base.Add(62*time.Second), "500", "1")); closed != nil {
		t.Fatalf("foreign symbol must be dropped")
	}
}

func TestBarAggregatorInvalidArgs(t *testing.T) {
	if _, err := NewBarAggregator("  ", time.Minute, nil); err == nil {
		t.Fatalf("empty symbol accepted")
	}
	if _, err := NewBarAggregator("2327", 0, nil); err == nil {
		t.Fatalf("zero period accepted")
	}
}
