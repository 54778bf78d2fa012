package dao

import (
	"scalpbot/internal/model"
	"scalpbot/internal/model/entity"

	"gorm.io/gorm"
)

// Migrate 建表或补齐字段
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.TransactionRecord{}, &entity.BacktestReport{})
}
