package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tick 表示一笔逐笔成交。来自行情源，创建后不再修改。
type Tick struct {
	MarketNo  int             // 市场别（1=上市, 2=上柜）
	Symbol    string          // 股票代码
	Time      time.Time       // 成交时间
	TradeDate time.Time       // 交易日
	SerialNo  int             // 逐笔序号，<=0 视为未赋值
	Price     decimal.Decimal // 成交价
	Volume    decimal.Decimal // 成交量（张）
}

func (t Tick) String() string {
	return fmt.Sprintf("[%s] %s @ %s (vol %s)",
		t.Time.Format("15:04:05"), t.Symbol, t.Price, t.Volume)
}

// NormalizeSymbol 统一股票代码的比较口径：去掉首尾空白并转大写。
// 输出展示仍保留原始写法，只有 map key 使用该形式。
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
