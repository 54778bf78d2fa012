package transaction

import (
	"context"
	"errors"
	"scalpbot/internal/model"

	"go.uber.org/multierr"
)

var ErrNotFound = errors.New("transaction record not found")

// Sink 订单流水的写入端
type Sink interface {
	Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error)
}

// Store 可查询的流水存储
type Store interface {
	Sink
	FindAll(ctx context.Context) ([]model.TransactionRecord, error)
	FindByID(ctx context.Context, id int64) (model.TransactionRecord, error)
	FindBySide(ctx context.Context, side model.OrderSide) ([]model.TransactionRecord, error)
	Find(ctx context.Context, q model.TransactionQuery) ([]model.TransactionRecord, error)
}

// SinkFunc 把函数适配为 Sink
type SinkFunc func(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error)

func (f SinkFunc) Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	return f(ctx, record)
}

// Fanout 依次写入所有 Sink，返回第一个 Sink 的结果，错误合并返回
type Fanout []Sink

func NewFanout(sinks ...Sink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Fanout) Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	saved := record
	var errs error
	for i, s := range f {
		r, err := s.Save(ctx, record)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if i == 0 {
			saved = r
		}
	}
	return saved, errs
}

// Discard 丢弃所有流水
var Discard Sink = SinkFunc(func(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	return record, nil
})

func matches(r model.TransactionRecord, q model.TransactionQuery) bool {
	if q.Side != "" && r.Side != q.Side {
		return false
	}
	if q.Market != "" && r.Market != q.Market {
		return false
	}
	return true
}
