package dao

import (
	"context"
	"errors"
	"scalpbot/internal/model"
	"scalpbot/internal/transaction"

	"gorm.io/gorm"
)

var _ transaction.Store = (*TransactionDao)(nil)

// TransactionDao 订单流水表
type TransactionDao struct {
	db *gorm.DB
}

func NewTransactionDao(db *gorm.DB) *TransactionDao {
	return &TransactionDao{db: db}
}

// 插入一条流水，主键由数据库生成
func (d *TransactionDao) Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	err := d.db.WithContext(ctx).Create(&record).Error
	return record, err
}

func (d *TransactionDao) FindAll(ctx context.Context) (list []model.TransactionRecord, err error) {
	err = d.db.WithContext(ctx).Model(&model.TransactionRecord{}).
		Order("id ASC").
		Find(&list).Error
	return
}

func (d *TransactionDao) FindByID(ctx context.Context, id int64) (r model.TransactionRecord, err error) {
	err = d.db.WithContext(ctx).Model(&model.TransactionRecord{}).
		Where("id = ?", id).
		Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = transaction.ErrNotFound
	}
	return
}

func (d *TransactionDao) FindBySide(ctx context.Context, side model.OrderSide) ([]model.TransactionRecord, error) {
	return d.Find(ctx, model.TransactionQuery{Side: side})
}

// 按条件查询，有 Limit 时取最新的若干条，结果按时间正序
func (d *TransactionDao) Find(ctx context.Context, q model.TransactionQuery) (list []model.TransactionRecord, err error) {
	tx := d.db.WithContext(ctx).Model(&model.TransactionRecord{})
	if q.Side != "" {
		tx = tx.Where("side = ?", q.Side)
	}
	if q.Market != "" {
		tx = tx.Where("market = ?", q.Market)
	}
	if q.Limit > 0 {
		tx = tx.Order("id DESC").Limit(q.Limit)
	} else {
		tx = tx.Order("id ASC")
	}
	if err = tx.Find(&list).Error; err != nil {
		return
	}
	if q.Limit > 0 {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	return
}
