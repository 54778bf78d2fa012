package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeriesStats 回测价格序列统计
type SeriesStats struct {
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// BacktestReport 一次回测的结果
type BacktestReport struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`
	Strategy string `json:"strategy"`
	Market   string `json:"market"`
	Samples  int    `json:"samples"`
	Cycles   int    `json:"cycles"`

	InitialValue   decimal.Decimal `json:"initial_value"`
	FinalValue     decimal.Decimal `json:"final_value"`
	BaseBalance    decimal.Decimal `json:"base_balance"`
	CounterBalance decimal.Decimal `json:"counter_balance"`
	LastPrice      decimal.Decimal `json:"last_price"`

	MaxBuyDepth  int `json:"max_buy_depth"`
	MaxSellDepth int `json:"max_sell_depth"`
	BuysSent     int `json:"buys_sent"`
	SellsSent    int `json:"sells_sent"`
	BuysFilled   int `json:"buys_filled"`
	SellsFilled  int `json:"sells_filled"`

	Stats   SeriesStats         `json:"stats"`
	Items   map[string]string   `json:"items"`
	Records []TransactionRecord `json:"records,omitempty"`
	// 致命错误导致提前结束时记录原因
	Error string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Profit 期末价值减期初价值
func (r *BacktestReport) Profit() decimal.Decimal {
	return r.FinalValue.Sub(r.InitialValue)
}

// BacktestReq 发起回测的请求参数
type BacktestReq struct {
	Scenario      string            `json:"scenario" binding:"required"`
	Strategy      string            `json:"strategy"`
	Samples       int               `json:"samples" binding:"omitempty,gte=2,lte=100000"`
	Items         map[string]string `json:"items"`
	CrossingFills bool              `json:"crossing_fills"`
	WithRecords   bool              `json:"with_records"`
}

// BacktestReportReq 按 run_id 查询或删除回测报告
type BacktestReportReq struct {
	RunID string `uri:"id" binding:"required"`
}

type BacktestListReq struct {
	Page  int `form:"page" binding:"omitempty,gte=1"`
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=100"`
}
