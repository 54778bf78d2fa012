package dao

import (
	"context"
	"scalpbot/internal/model/entity"

	"gorm.io/gorm"
)

// BacktestDao 回测报告表，删除为软删除
type BacktestDao struct {
	db *gorm.DB
}

func NewBacktestDao(db *gorm.DB) *BacktestDao {
	return &BacktestDao{db: db}
}

func (d *BacktestDao) BacktestCreateNew(ctx context.Context, report *entity.BacktestReport) error {
	return d.db.WithContext(ctx).Create(report).Error
}

func (d *BacktestDao) BacktestGetByRunID(ctx context.Context, runID string) (r entity.BacktestReport, err error) {
	err = d.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Take(&r).Error
	return
}

// 分页查询，最新的在前
func (d *BacktestDao) BacktestGetList(ctx context.Context, page, limit int) (list []entity.BacktestReport, total int64, err error) {
	if err = d.db.WithContext(ctx).Model(&entity.BacktestReport{}).Count(&total).Error; err != nil {
		return
	}
	err = d.db.WithContext(ctx).Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	return
}

func (d *BacktestDao) BacktestDeleteByRunID(ctx context.Context, runID string) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&entity.BacktestReport{})
	return res.RowsAffected, res.Error
}
