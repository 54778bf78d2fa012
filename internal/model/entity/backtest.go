package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/plugin/soft_delete"
)

// BacktestReport 回测报告落库，流水明细不入此表
type BacktestReport struct {
	ID       uint64 `gorm:"primaryKey"`
	RunID    string `gorm:"column:run_id;type:varchar(40);not null;uniqueIndex:idx_run_id"`
	Scenario string `gorm:"column:scenario;type:varchar(64);not null;index:idx_scenario"`
	Strategy string `gorm:"column:strategy;type:varchar(64);not null"`
	Market   string `gorm:"column:market;type:varchar(30)"`
	Samples  int    `gorm:"column:samples"`
	Cycles   int    `gorm:"column:cycles"`

	InitialValue decimal.Decimal `gorm:"column:initial_value;type:decimal(32,8)"`
	FinalValue   decimal.Decimal `gorm:"column:final_value;type:decimal(32,8)"`
	MaxSellDepth int             `gorm:"column:max_sell_depth"`

	// 策略参数 map[string]string
	Config datatypes.JSONMap `gorm:"column:config;type:json"`
	// 完整报告（不含流水）
	Summary datatypes.JSON `gorm:"column:summary;type:json"`
	Error   string         `gorm:"column:error;type:text"`

	CreatedAt time.Time             `gorm:"column:created_at"`
	DeletedAt *time.Time            `gorm:"column:deleted_at"`
	IsDel     soft_delete.DeletedAt `gorm:"softDelete:flag,DeletedAtField:DeletedAt"`
}

func (BacktestReport) TableName() string {
	return "backtest_report"
}
