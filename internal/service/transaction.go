package service

import (
	"context"
	"scalpbot/internal/model"
	"scalpbot/internal/transaction"
)

// 未指定条数时最多返回的流水数
const defaultTransactionLimit = 100

// TransactionService 查询订单流水，底层为数据库或内存存储
type TransactionService struct {
	store transaction.Store
}

func NewTransactionService(store transaction.Store) *TransactionService {
	return &TransactionService{store: store}
}

func (s *TransactionService) List(ctx context.Context, q model.TransactionQuery) ([]model.TransactionRecord, error) {
	if q.Limit <= 0 {
		q.Limit = defaultTransactionLimit
	}
	return s.store.Find(ctx, q)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (model.TransactionRecord, error) {
	return s.store.FindByID(ctx, id)
}
