package gateway

import "stock-advisor-go/market"

// TickSink 行情事件的下游入口，由 Orchestrator 实现。
type TickSink interface {
	HandleTick(t market.Tick)
	HandleBest5(q market.Best5Quote)
}

// FeedHandler 实现 Handler，把行情推送转交给 TickSink。
type FeedHandler struct {
	Sink TickSink
}

func (h *FeedHandler) OnTickReceived(t market.Tick) {
	if h.Sink != nil {
		h.Sink.HandleTick(t)
	}
}

func (h *FeedHandler) OnBest5(q market.Best5Quote) {
	if h.Sink != nil {
		h.Sink.HandleBest5(q)
	}
}
