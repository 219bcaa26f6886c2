package market

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// barAccumulator 是形成中的 K 线工作区。定型前不做任何校验，
// 定型时经 NewBar 校验后产出不可变 Bar。
type barAccumulator struct {
	end time.Time
	bar Bar
}

// BarAggregator 将单一股票的逐笔成交聚合为固定周期 K 线。
// 自身不加锁：同一股票的调用必须由调用方（Orchestrator 的
// 每股票锁）串行化，不同股票各持一个实例互不相干。
type BarAggregator struct {
	symbol string // 原始写法，用于输出
	key    string // 规范化后的比较键
	period time.Duration
	cur    *barAccumulator
	logger *zap.Logger
}

// NewBarAggregator 创建指定股票与周期的聚合器。
func NewBarAggregator(symbol string, period time.Duration, logger *zap.Logger) (*BarAggregator, error) {
	trimmed := NormalizeSymbol(symbol)
	if trimmed == "" {
		return nil, errors.New("symbol required")
	}
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BarAggregator{
		symbol: symbolForOutput(symbol),
		key:    trimmed,
		period: period,
		logger: logger,
	}, nil
}

// Symbol 返回该聚合器负责的股票代码（原始写法）。
func (a *BarAggregator) Symbol() string { return a.symbol }

// Update 吞入一笔成交并更新当前 K 线。
// 跨越周期边界时返回定型的上一根 Bar，否则返回 nil。
func (a *BarAggregator) Update(t Tick) *Bar {
	if NormalizeSymbol(t.Symbol) != a.key {
		a.logger.Debug("tick symbol mismatch, dropped",
			zap.String("symbol", a.symbol), zap.String("tick_symbol", t.Symbol))
		return nil
	}

	end := a.bucketEnd(t.Time)

	if a.cur == nil {
		a.cur = a.open(end, t)
		return nil
	}

	switch {
	case end.After(a.cur.end):
		closed := a.finalize()
		a.cur = a.open(end, t)
		return closed
	case end.Equal(a.cur.end):
		cur := &a.cur.bar
		if t.Price.GreaterThan(cur.High) {
			cur.High = t.Price
		}
		if t.Price.LessThan(cur.Low) {
			cur.Low = t.Price
		}
		cur.Close = t.Price
		cur.Volume = cur.Volume.Add(t.Volume)
		return nil
	default:
		// 行情源保证同股票顺序，晚到的旧周期 tick 只可能是异常，
		// 丢弃并告警，绝不回写已定型区间。
		a.logger.Warn("stale tick ignored",
			zap.String("symbol", a.symbol),
			zap.Time("tick_time", t.Time),
			zap.Time("current_end", a.cur.end))
		return nil
	}
}

// bucketEnd 计算所属周期的结束时间：tick 落入半开区间
// [k*P, (k+1)*P)，以 (k+1)*P 标记。整数纳秒运算，避免浮点漂移。
func (a *BarAggregator) bucketEnd(ts time.Time) time.Time {
	ns := ts.UnixNano()
	p := a.period.Nanoseconds()
	return time.Unix(0, ns-ns%p+p).In(ts.Location())
}

func (a *BarAggregator) open(end time.Time, t Tick) *barAccumulator {
	return &barAccumulator{
		end: end,
		bar: Bar{
			Symbol: a.symbol,
			Time:   end,
			Open:   t.Price,
			High:   t.Price,
			Low:    t.Price,
			Close:  t.Price,
			Volume: t.Volume,
		},
	}
}

func (a *BarAggregator) finalize() *Bar {
	cur := a.cur.bar
	closed, err := NewBar(cur.Symbol, cur.Time, cur.Open, cur.High, cur.Low, cur.Close, cur.Volume)
	if err != nil {
		// 按构造方式不可能出现，出现即说明状态被破坏。
		a.logger.Error("dropping corrupt bar", zap.String("symbol", a.symbol), zap.Error(err))
		return nil
	}
	return &closed
}

// symbolForOutput 去掉空白但保留原始大小写，用于展示与产出。
func symbolForOutput(symbol string) string {
	return strings.TrimSpace(symbol)
}
