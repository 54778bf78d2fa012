package exchange

import (
	"context"
	"scalpbot/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// Market 策略交易的单一市场
type Market struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BaseCurrency    string `json:"base_currency"`
	CounterCurrency string `json:"counter_currency"`
}

type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// OrderBook 买盘按价格从高到低，卖盘从低到高
type OrderBook struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

type OpenOrder struct {
	ID        string
	Side      model.OrderSide
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	CreatedAt time.Time
}

// Exchange 交易所（或模拟器）的底层接口，错误需要包装 ErrNetworkTimeout 或 ErrApiFault
type Exchange interface {
	Name() string
	// 获取盘口
	GetOrderBook(ctx context.Context, marketID string) (*OrderBook, error)
	// 下限价单，返回交易所分配的订单id
	PlaceOrder(ctx context.Context, marketID string, side model.OrderSide, quantity, price decimal.Decimal) (string, error)
	// 当前未成交的订单
	OpenOrders(ctx context.Context, marketID string) ([]OpenOrder, error)
	// 获取最新成交价
	GetLastPrice(ctx context.Context, marketID string) (decimal.Decimal, error)
	// 撤销订单
	CancelOrder(ctx context.Context, marketID string, orderID string) error

	Account() Account
}

// Account 账户余额
type Account interface {
	Balances(ctx context.Context) (map[string]decimal.Decimal, error)
}
