package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

func (s OrderSide) Valid() bool {
	return s == Buy || s == Sell
}

// OrderState 已提交、尚未确认成交的限价单，提交后不再修改
type OrderState struct {
	ID       string          `json:"id"`
	Side     OrderSide       `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type TransactionStatus string

const (
	StatusSent   TransactionStatus = "SENT"
	StatusFilled TransactionStatus = "FILLED"
)

// TransactionRecord 订单状态流水，只追加不修改
type TransactionRecord struct {
	ID          int64             `gorm:"column:id;primary_key;" json:"id"`
	OrderID     string            `gorm:"column:order_id;type:varchar(64);index:idx_order_id" json:"order_id"`
	Side        OrderSide         `gorm:"column:side;type:varchar(8)" json:"side"`
	Status      TransactionStatus `gorm:"column:status;type:varchar(8)" json:"status"`
	Market      string            `gorm:"column:market;type:varchar(30)" json:"market"`
	Amount      decimal.Decimal   `gorm:"column:amount;type:decimal(32,8)" json:"amount"`
	Price       decimal.Decimal   `gorm:"column:price;type:decimal(32,8)" json:"price"`
	StrategyID  string            `gorm:"column:strategy_id;type:varchar(64)" json:"strategy_id"`
	ExchangeAPI string            `gorm:"column:exchange_api;type:varchar(64)" json:"exchange_api"`
	Timestamp   time.Time         `gorm:"column:timestamp" json:"timestamp"`
}

func (TransactionRecord) TableName() string {
	return "transaction_record"
}

// NewTransactionRecord 由订单和状态生成一条流水
func NewTransactionRecord(order OrderState, status TransactionStatus, market, strategyID, exchangeAPI string, ts time.Time) TransactionRecord {
	return TransactionRecord{
		OrderID:     order.ID,
		Side:        order.Side,
		Status:      status,
		Market:      market,
		Amount:      order.Quantity,
		Price:       order.Price,
		StrategyID:  strategyID,
		ExchangeAPI: exchangeAPI,
		Timestamp:   ts,
	}
}

// TransactionQuery 流水查询条件，零值表示不过滤
type TransactionQuery struct {
	Side   OrderSide `form:"side" json:"side" binding:"omitempty,oneof=buy sell"`
	Market string    `form:"market" json:"market"`
	Limit  int       `form:"limit" json:"limit" binding:"omitempty,gte=1,lte=1000"`
}
