package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"stock-advisor-go/infrastructure/logger"
	"stock-advisor-go/internal/store"
	"stock-advisor-go/market"
	"stock-advisor-go/metrics"
	"stock-advisor-go/strategy"
)

// Broker 行情源契约：登录、按股票订阅，tick 由源异步回调推送
// （可能多线程并发），Orchestrator 是回调与策略之间唯一的中介。
type Broker interface {
	Login(ctx context.Context, username, password string) error
	Subscribe(symbol string) error
}

// GapAlerter 缺号事件的接收方。投递失败由接收方自理，这里不重试。
type GapAlerter interface {
	NotifySerialNoGap(ev market.GapEvent)
}

// Config 编排配置
type Config struct {
	BarPeriod time.Duration // K 线周期，默认 1 分钟
}

// Components 编排依赖组件。Broker 必填，其余可空。
type Components struct {
	Broker    Broker
	Alerts    GapAlerter
	Publisher *market.Publisher
	Metrics   *metrics.Set
	Logger    *logger.Logger
}

// symbolState 单一股票的聚合器与其更新锁。
// 锁只包住聚合器变更，策略回调在锁外执行，慢策略不会拖住别的股票。
type symbolState struct {
	mu   sync.Mutex
	agg  *market.BarAggregator
	hist *store.Store
}

// Orchestrator 把行情源的 tick 路由到每股票 K 线聚合器、
// 缺号侦测器与已注册的策略。
type Orchestrator struct {
	period  time.Duration
	broker  Broker
	alerts  GapAlerter
	pub     *market.Publisher
	metrics *metrics.Set
	logger  *logger.Logger

	gaps *market.GapDetector

	mu     sync.RWMutex
	states map[string]*symbolState

	stratMu    sync.RWMutex
	strategies []strategy.Strategy
}

// New 创建 Orchestrator。
func New(cfg Config, comp Components) (*Orchestrator, error) {
	if comp.Broker == nil {
		return nil, errors.New("broker is required")
	}
	if cfg.BarPeriod <= 0 {
		cfg.BarPeriod = time.Minute
	}
	if comp.Logger == nil {
		comp.Logger = logger.Nop()
	}
	return &Orchestrator{
		period:  cfg.BarPeriod,
		broker:  comp.Broker,
		alerts:  comp.Alerts,
		pub:     comp.Publisher,
		metrics: comp.Metrics,
		logger:  comp.Logger,
		gaps:    market.NewGapDetector(),
		states:  make(map[string]*symbolState),
	}, nil
}

// RegisterStrategy 追加策略，按注册顺序投递。不去重。
func (o *Orchestrator) RegisterStrategy(s strategy.Strategy) {
	if s == nil {
		return
	}
	o.stratMu.Lock()
	o.strategies = append(o.strategies, s)
	o.stratMu.Unlock()
	o.logger.Info("strategy registered", zap.String("strategy", s.Name()))
}

// Start 登录行情源并订阅指定股票。登录失败中止整个启动；
// 空白与重复代码跳过并告警；每档股票只建立一份聚合状态、
// 只发送一次订阅请求。
func (o *Orchestrator) Start(ctx context.Context, symbols []string, username, password string) error {
	o.logger.Info("starting trading flow", zap.Strings("symbols", symbols))

	if err := o.broker.Login(ctx, username, password); err != nil {
		return fmt.Errorf("broker login: %w", err)
	}

	for _, raw := range symbols {
		symbol := strings.TrimSpace(raw)
		if symbol == "" {
			o.logger.Warn("skipped empty symbol")
			continue
		}
		if !o.addState(symbol) {
			o.logger.Warn("skipped duplicate symbol", zap.String("symbol", symbol))
			continue
		}
		if err := o.broker.Subscribe(symbol); err != nil {
			return fmt.Errorf("subscribe %s: %w", symbol, err)
		}
		o.logger.Info("subscribed", zap.String("symbol", symbol))
	}
	return nil
}

// addState 原子地插入股票状态；已存在返回 false。
func (o *Orchestrator) addState(symbol string) bool {
	key := market.NormalizeSymbol(symbol)

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.states[key]; ok {
		return false
	}
	agg, err := market.NewBarAggregator(symbol, o.period, o.logger.Logger)
	if err != nil {
		// symbol 已通过非空校验，这里只可能是周期配置问题
		o.logger.Error("aggregator init failed", zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	o.states[key] = &symbolState{agg: agg, hist: store.New(symbol, 0)}
	return true
}

func (o *Orchestrator) lookup(key string) *symbolState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.states[key]
}

// HandleTick 行情源的 tick 回调入口，可被多线程并发调用。
// 未订阅股票的 tick 不聚合，但仍投递给所有策略。
func (o *Orchestrator) HandleTick(t market.Tick) {
	key := market.NormalizeSymbol(t.Symbol)
	if o.metrics != nil && key != "" {
		o.metrics.TicksTotal.WithLabelValues(key).Inc()
	}

	if st := o.lookup(key); st != nil {
		st.mu.Lock()
		closed := st.agg.Update(t)
		st.mu.Unlock()
		st.hist.ApplyTick(t)
		if closed != nil {
			o.HandleBarClosed(*closed)
		}
	} else if key != "" {
		o.logger.Debug("tick for unsubscribed symbol", zap.String("symbol", t.Symbol))
		if o.metrics != nil {
			o.metrics.UnroutedTicksTotal.Inc()
		}
	}

	if isGap, ev := o.gaps.TryDetectGap(t); isGap && ev != nil {
		o.handleGap(*ev)
	}

	if o.pub != nil {
		o.pub.PublishTick(t)
	}
	for _, s := range o.snapshot() {
		o.safeOnTick(s, t)
	}
}

// HandleBarClosed 把定型 K 线广播给所有策略与订阅者。
func (o *Orchestrator) HandleBarClosed(b market.Bar) {
	o.logger.Info("bar closed",
		zap.String("symbol", b.Symbol),
		zap.Time("end", b.Time),
		zap.String("close", b.Close.String()),
		zap.String("volume", b.Volume.String()))
	if o.metrics != nil {
		o.metrics.BarsClosedTotal.WithLabelValues(market.NormalizeSymbol(b.Symbol)).Inc()
	}
	if st := o.lookup(market.NormalizeSymbol(b.Symbol)); st != nil {
		st.hist.AppendBar(b)
	}
	if o.pub != nil {
		o.pub.PublishBar(b)
	}
	for _, s := range o.snapshot() {
		o.safeOnBar(s, b)
	}
}

// HandleBest5 五档报价只转发给发布器并更新行情快照，策略契约不含五档。
func (o *Orchestrator) HandleBest5(q market.Best5Quote) {
	if st := o.lookup(market.NormalizeSymbol(q.Symbol)); st != nil {
		st.hist.ApplyBest5(q)
	}
	if o.pub != nil {
		o.pub.PublishBest5(q)
	}
}

// History 返回指定股票的行情状态存储，未订阅返回 nil。
func (o *Orchestrator) History(symbol string) *store.Store {
	if st := o.lookup(market.NormalizeSymbol(symbol)); st != nil {
		return st.hist
	}
	return nil
}

// Symbols 返回已建立聚合状态的股票数。
func (o *Orchestrator) Symbols() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.states)
}

func (o *Orchestrator) handleGap(ev market.GapEvent) {
	o.logger.LogGap(ev.Symbol, map[string]interface{}{
		"previous":      ev.PreviousSerialNo,
		"current":       ev.CurrentSerialNo,
		"missing_start": ev.MissingStart,
		"missing_end":   ev.MissingEnd,
		"missing_count": ev.MissingCount(),
	})
	if o.metrics != nil {
		o.metrics.GapsTotal.WithLabelValues(ev.Symbol).Inc()
		o.metrics.GapMissingTotal.WithLabelValues(ev.Symbol).Add(float64(ev.MissingCount()))
	}
	if o.alerts != nil {
		defer o.recoverConsumer("gap-alerter")
		o.alerts.NotifySerialNoGap(ev)
	}
}

// snapshot 在读锁下复制策略清单，回调期间的并发注册不会崩溃。
func (o *Orchestrator) snapshot() []strategy.Strategy {
	o.stratMu.RLock()
	defer o.stratMu.RUnlock()
	out := make([]strategy.Strategy, len(o.strategies))
	copy(out, o.strategies)
	return out
}

// safeOnTick 隔离单个策略的 panic，其余策略照常收到事件。
func (o *Orchestrator) safeOnTick(s strategy.Strategy, t market.Tick) {
	defer o.recoverConsumer(s.Name())
	s.OnTick(t)
}

func (o *Orchestrator) safeOnBar(s strategy.Strategy, b market.Bar) {
	defer o.recoverConsumer(s.Name())
	s.OnBar(b)
}

func (o *Orchestrator) recoverConsumer(name string) {
	if r := recover(); r != nil {
		o.logger.Error("consumer panicked",
			zap.String("consumer", name),
			zap.Any("panic", r))
		if o.metrics != nil {
			o.metrics.StrategyPanicsTotal.WithLabelValues(name).Inc()
		}
	}
}
