package strategy

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stock-advisor-go/market"
)

// Signal 均线交叉信号。
type Signal string

const (
	SignalNone    Signal = ""
	SignalBullish Signal = "BULLISH"
	SignalBearish Signal = "BEARISH"
)

// MaCross 简单的均线交叉策略：短期 MA 上穿长期 MA 视为多头信号。
// 按股票维护独立的收盘价序列，定型 K 线驱动，tick 不处理。
type MaCross struct {
	NopHandlers

	shortPeriod int
	longPeriod  int
	logger      *zap.Logger

	mu      sync.Mutex
	closes  map[string][]decimal.Decimal
	signals map[string]Signal
}

// NewMaCross 创建均线交叉策略。要求 0 < shortPeriod < longPeriod。
func NewMaCross(logger *zap.Logger, shortPeriod, longPeriod int) (*MaCross, error) {
	if shortPeriod <= 0 || longPeriod <= shortPeriod {
		return nil, errors.New("require 0 < shortPeriod < longPeriod")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaCross{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		logger:      logger,
		closes:      make(map[string][]decimal.Decimal),
		signals:     make(map[string]Signal),
	}, nil
}

func (s *MaCross) Name() string { return "MA Cross Strategy" }

// OnBar 收到定型 K 线后更新均线并评估信号。
func (s *MaCross) OnBar(b market.Bar) {
	key := market.NormalizeSymbol(b.Symbol)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.closes[key], b.Close)
	if len(series) > s.longPeriod {
		series = series[len(series)-s.longPeriod:]
	}
	s.closes[key] = series

	if len(series) < s.longPeriod {
		return
	}

	shortMa := average(series[len(series)-s.shortPeriod:])
	longMa := average(series)

	signal := SignalBearish
	if shortMa.GreaterThan(longMa) {
		signal = SignalBullish
	}
	if s.signals[key] != signal {
		s.logger.Info("ma cross signal",
			zap.String("symbol", b.Symbol),
			zap.String("signal", string(signal)),
			zap.String("short_ma", shortMa.StringFixed(2)),
			zap.String("long_ma", longMa.StringFixed(2)))
	}
	s.signals[key] = signal
}

// LastSignal 返回某股票最近一次信号；尚无信号时为 SignalNone。
func (s *MaCross) LastSignal(symbol string) Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals[market.NormalizeSymbol(symbol)]
}

func average(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Avg(values[0], values[1:]...)
}
