package strategy

import "stock-advisor-go/market"

// Strategy 是行情事件的下游消费者契约。实现不得假设跨股票的
// 单线程投递顺序；同一股票的事件按行情源顺序到达。
type Strategy interface {
	Name() string
	OnTick(t market.Tick)
	OnBar(b market.Bar)
}

// NopHandlers 可嵌入的空实现，供只关心单一事件类型的策略使用。
type NopHandlers struct{}

func (NopHandlers) OnTick(market.Tick) {}
func (NopHandlers) OnBar(market.Bar)   {}
