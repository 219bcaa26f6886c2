package market

import "sync"

const defaultBuffer = 64

// Publisher 轻量事件分发器：把 tick、定型 K 线与五档报价
// 以非阻塞方式广播给订阅者。订阅者跟不上时直接丢弃（at-most-once）。
type Publisher struct {
	mu        sync.RWMutex
	tickSubs  []chan Tick
	barSubs   []chan Bar
	best5Subs []chan Best5Quote
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// SubscribeTicks 返回接收 tick 的缓冲通道。应在启动阶段完成订阅。
func (p *Publisher) SubscribeTicks() <-chan Tick {
	ch := make(chan Tick, defaultBuffer)
	p.mu.Lock()
	p.tickSubs = append(p.tickSubs, ch)
	p.mu.Unlock()
	return ch
}

// SubscribeBars 返回接收定型 K 线的缓冲通道。
func (p *Publisher) SubscribeBars() <-chan Bar {
	ch := make(chan Bar, defaultBuffer)
	p.mu.Lock()
	p.barSubs = append(p.barSubs, ch)
	p.mu.Unlock()
	return ch
}

// SubscribeBest5 返回接收五档报价的缓冲通道。
func (p *Publisher) SubscribeBest5() <-chan Best5Quote {
	ch := make(chan Best5Quote, defaultBuffer)
	p.mu.Lock()
	p.best5Subs = append(p.best5Subs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) PublishTick(t Tick) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.tickSubs {
		select {
		case ch <- t:
		default:
		}
	}
}

func (p *Publisher) PublishBar(b Bar) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.barSubs {
		select {
		case ch <- b:
		default:
		}
	}
}

func (p *Publisher) PublishBest5(q Best5Quote) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.best5Subs {
		select {
		case ch <- q:
		default:
		}
	}
}
