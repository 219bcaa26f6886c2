package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Best5Quote 五档报价快照。
type Best5Quote struct {
	Symbol     string
	Time       time.Time
	BidPrices  [5]decimal.Decimal
	BidVolumes [5]int
	AskPrices  [5]decimal.Decimal
	AskVolumes [5]int
}
