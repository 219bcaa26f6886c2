package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stock-advisor-go/market"
)

// priceScale 行情源价格以万分位整数传输（1005000 = 100.50）。
const priceScale = 4

// Envelope 行情推送的外层包装。
type Envelope struct {
	Type string          `json:"type"` // "tick" 或 "best5"
	Data json.RawMessage `json:"data"`
}

// wireTime 行情源的时分秒毫秒格式。
type wireTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
	Msec   int `json:"msec"`
}

// TickPayload 逐笔成交消息体。
type TickPayload struct {
	MarketNo     int      `json:"marketNo"`
	StockCode    string   `json:"stockCode"`
	TradeDate    string   `json:"tradeDate"` // YYYYMMDD
	SerialNo     int      `json:"serialNo"`
	TickTime     wireTime `json:"tickTime"`
	DealPriceRaw int64    `json:"dealPriceRaw"`
	DealVolRaw   int64    `json:"dealVolRaw"`
	InOutFlag    int      `json:"inOutFlag"`
	TickType     int      `json:"tickType"`
}

// Best5Payload 五档报价消息体。
type Best5Payload struct {
	MarketNo     int      `json:"marketNo"`
	StockCode    string   `json:"stockCode"`
	TickTime     wireTime `json:"tickTime"`
	BidPricesRaw [5]int64 `json:"bidPricesRaw"`
	BidVolumes   [5]int   `json:"bidVolumes"`
	AskPricesRaw [5]int64 `json:"askPricesRaw"`
	AskVolumes   [5]int   `json:"askVolumes"`
}

// ParseEnvelope 解析外层消息，返回类型与原始消息体。
func ParseEnvelope(raw []byte) (string, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Type == "" {
		return "", nil, fmt.Errorf("envelope missing type")
	}
	return env.Type, env.Data, nil
}

// ParseTick 解析逐笔成交消息为领域 Tick。
func ParseTick(data []byte, loc *time.Location) (market.Tick, error) {
	var p TickPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return market.Tick{}, fmt.Errorf("parse tick: %w", err)
	}
	if p.StockCode == "" {
		return market.Tick{}, fmt.Errorf("tick missing stockCode")
	}
	tradeDate, err := parseTradeDate(p.TradeDate, loc)
	if err != nil {
		return market.Tick{}, err
	}
	eventTime := time.Date(tradeDate.Year(), tradeDate.Month(), tradeDate.Day(),
		p.TickTime.Hour, p.TickTime.Minute, p.TickTime.Second, p.TickTime.Msec*int(time.Millisecond), loc)

	return market.Tick{
		MarketNo:  p.MarketNo,
		Symbol:    p.StockCode,
		Time:      eventTime,
		TradeDate: tradeDate,
		SerialNo:  p.SerialNo,
		Price:     decimal.New(p.DealPriceRaw, -priceScale),
		Volume:    decimal.NewFromInt(p.DealVolRaw),
	}, nil
}

// ParseBest5 解析五档报价消息。日期字段行情源不提供，取当日。
func ParseBest5(data []byte, loc *time.Location, now time.Time) (market.Best5Quote, error) {
	var p Best5Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return market.Best5Quote{}, fmt.Errorf("parse best5: %w", err)
	}
	if p.StockCode == "" {
		return market.Best5Quote{}, fmt.Errorf("best5 missing stockCode")
	}
	day := now.In(loc)
	q := market.Best5Quote{
		Symbol: p.StockCode,
		Time: time.Date(day.Year(), day.Month(), day.Day(),
			p.TickTime.Hour, p.TickTime.Minute, p.TickTime.Second, p.TickTime.Msec*int(time.Millisecond), loc),
		BidVolumes: p.BidVolumes,
		AskVolumes: p.AskVolumes,
	}
	for i := 0; i < 5; i++ {
		q.BidPrices[i] = decimal.New(p.BidPricesRaw[i], -priceScale)
		q.AskPrices[i] = decimal.New(p.AskPricesRaw[i], -priceScale)
	}
	return q, nil
}

func parseTradeDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("20060102", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse tradeDate %q: %w", s, err)
	}
	return d, nil
}
