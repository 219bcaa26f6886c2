package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRange 表示 K 线的最高价低于最低价。
var ErrInvalidRange = errors.New("bar high cannot be lower than low")

// Bar 是一根已定型的 OHLCV K 线。Time 为周期的结束时间，
// 即该 Bar 覆盖 [Time-period, Time) 区间。构造后不可变。
type Bar struct {
	Symbol string
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// NewBar 构造 K 线并校验价格区间。high < low 直接拒绝。
func NewBar(symbol string, end time.Time, open, high, low, close, volume decimal.Decimal) (Bar, error) {
	if high.LessThan(low) {
		return Bar{}, ErrInvalidRange
	}
	return Bar{
		Symbol: symbol,
		Time:   end,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}, nil
}

func (b Bar) String() string {
	return fmt.Sprintf("%s %s O=%s H=%s L=%s C=%s V=%s",
		b.Symbol, b.Time.Format("15:04:05"), b.Open, b.High, b.Low, b.Close, b.Volume)
}
