package store

import (
	"sync"

	"stock-advisor-go/market"
)

// DefaultBarCapacity 默认保留的已收线 K 棒数量（一分钟线约等于一个交易日）。
const DefaultBarCapacity = 270

// Store 维护单一股票的最新行情状态（最后成交、最新五档、已收线 K 棒序列）。
// 提供只读方法供策略/查询侧调用。
type Store struct {
	Symbol string

	mu       sync.RWMutex
	lastTick market.Tick
	hasTick  bool

	lastBest5 market.Best5Quote
	hasBest5  bool

	bars     []market.Bar
	capacity int
}

// New 创建行情状态存储。capacity <= 0 时取默认容量。
func New(symbol string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultBarCapacity
	}
	return &Store{
		Symbol:   symbol,
		bars:     make([]market.Bar, 0, capacity),
		capacity: capacity,
	}
}

// ApplyTick 记录最后一笔成交。
func (s *Store) ApplyTick(t market.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTick = t
	s.hasTick = true
}

// ApplyBest5 记录最新五档快照。
func (s *Store) ApplyBest5(q market.Best5Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBest5 = q
	s.hasBest5 = true
}

// AppendBar 追加一根已收线 K 棒，超出容量时丢弃最旧的。
func (s *Store) AppendBar(b market.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars = append(s.bars, b)
	if len(s.bars) > s.capacity {
		s.bars = s.bars[len(s.bars)-s.capacity:]
	}
}

// ReplaceBars 用外部回补的序列覆盖本地 K 棒（断线重连场景）。
func (s *Store) ReplaceBars(bars []market.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(bars) > s.capacity {
		bars = bars[len(bars)-s.capacity:]
	}
	s.bars = append(s.bars[:0], bars...)
}

// LastTick 最后一笔成交
func (s *Store) LastTick() (market.Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick, s.hasTick
}

// LastBest5 最新五档快照
func (s *Store) LastBest5() (market.Best5Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBest5, s.hasBest5
}

// LastBar 最近一根已收线 K 棒
func (s *Store) LastBar() (market.Bar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.bars) == 0 {
		return market.Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Bars 返回已收线 K 棒序列的副本。
func (s *Store) Bars() []market.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]market.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// BarCount 已收线 K 棒数量
func (s *Store) BarCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bars)
}
