package msg

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"stock-advisor-go/market"
	"stock-advisor-go/metrics"
)

// Publisher wraps a Kafka producer for outbound ticks and bars.
type Publisher struct {
	client  *kgo.Client
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Set

	produceCount int64
	errorCount   int64
}

// NewPublisher creates a Kafka publisher. metrics 可为 nil。
func NewPublisher(cfg Config, logger *zap.Logger, m *metrics.Set) (*Publisher, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	p := &Publisher{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}

	logger.Info("publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("client_id", cfg.ClientID),
	)

	go p.logStats()
	return p, nil
}

// PublishTick 同步发布一笔 tick。失败只计数并返回错误，不重试：
// 出站链路是 at-most-once。
func (p *Publisher) PublishTick(ctx context.Context, t market.Tick) error {
	return p.produceJSON(ctx, p.cfg.TickTopic, t.Symbol, FromTick(t))
}

// PublishBar 同步发布一根定型 K 线。
func (p *Publisher) PublishBar(ctx context.Context, b market.Bar) error {
	return p.produceJSON(ctx, p.cfg.BarTopic, b.Symbol, FromBar(b))
}

func (p *Publisher) produceJSON(ctx context.Context, topic, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		p.countError(topic)
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}

	produceCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result := p.client.ProduceSync(produceCtx, record)
	if result.FirstErr() != nil {
		p.countError(topic)
		return fmt.Errorf("failed to produce message: %w", result.FirstErr())
	}

	atomic.AddInt64(&p.produceCount, 1)
	return nil
}

// Run 从发布器通道持续取出 tick/bar 发往 Kafka，直到 ctx 取消。
// 发布失败记日志后继续，不阻断行情处理。
func (p *Publisher) Run(ctx context.Context, ticks <-chan market.Tick, bars <-chan market.Bar) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			if err := p.PublishTick(ctx, t); err != nil {
				p.logger.Warn("publish tick failed",
					zap.String("symbol", t.Symbol), zap.Error(err))
			}
		case b, ok := <-bars:
			if !ok {
				bars = nil
				continue
			}
			if err := p.PublishBar(ctx, b); err != nil {
				p.logger.Warn("publish bar failed",
					zap.String("symbol", b.Symbol), zap.Error(err))
			}
		}
	}
}

// Close closes the publisher
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

func (p *Publisher) countError(topic string) {
	atomic.AddInt64(&p.errorCount, 1)
	if p.metrics != nil {
		p.metrics.PublishErrorsTotal.WithLabelValues(topic).Inc()
	}
}

// logStats logs publisher statistics periodically
func (p *Publisher) logStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		produced := atomic.LoadInt64(&p.produceCount)
		errors := atomic.LoadInt64(&p.errorCount)
		p.logger.Info("publisher stats",
			zap.Int64("produced", produced),
			zap.Int64("errors", errors),
		)
	}
}
