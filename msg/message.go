package msg

import (
	"fmt"

	"stock-advisor-go/market"
)

// tickTimeInfo 下游消费方约定的时分秒毫秒格式。
type tickTimeInfo struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
	Msec   int `json:"msec"`
}

// TickMessage 逐笔成交的出站 JSON 消息。
// Key 形如 "1-2327-42"，供下游去重。
type TickMessage struct {
	Key       string       `json:"key"`
	MarketNo  int          `json:"marketNo"`
	StockCode string       `json:"stockCode"`
	TradeDate string       `json:"tradeDate"` // YYYYMMDD
	SerialNo  int          `json:"serialNo"`
	TickTime  tickTimeInfo `json:"tickTime"`
	Price     string       `json:"price"`
	Volume    string       `json:"volume"`
}

// BarMessage 定型 K 线的出站 JSON 消息。
type BarMessage struct {
	StockCode string `json:"stockCode"`
	EndTime   string `json:"endTime"` // RFC3339
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// FromTick 把领域 Tick 映射为出站消息。
func FromTick(t market.Tick) TickMessage {
	return TickMessage{
		Key:       tickKey(t),
		MarketNo:  t.MarketNo,
		StockCode: t.Symbol,
		TradeDate: t.TradeDate.Format("20060102"),
		SerialNo:  t.SerialNo,
		TickTime: tickTimeInfo{
			Hour:   t.Time.Hour(),
			Minute: t.Time.Minute(),
			Second: t.Time.Second(),
			Msec:   t.Time.Nanosecond() / 1e6,
		},
		Price:  t.Price.String(),
		Volume: t.Volume.String(),
	}
}

// FromBar 把定型 K 线映射为出站消息。
func FromBar(b market.Bar) BarMessage {
	return BarMessage{
		StockCode: b.Symbol,
		EndTime:   b.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		Open:      b.Open.String(),
		High:      b.High.String(),
		Low:       b.Low.String(),
		Close:     b.Close.String(),
		Volume:    b.Volume.String(),
	}
}

func tickKey(t market.Tick) string {
	return fmt.Sprintf("%d-%s-%d", t.MarketNo, t.Symbol, t.SerialNo)
}
