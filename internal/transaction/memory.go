package transaction

import (
	"context"
	"scalpbot/internal/model"
	"scalpbot/utils/uuid"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore 内存流水，回测和未配置数据库时使用
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.TransactionRecord
	iSrv    *uuid.SnowNode
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{iSrv: uuid.NewNode(1)}
}

func (m *MemoryStore) Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	if record.ID == 0 {
		record.ID = m.iSrv.GenSnowID()
	}
	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()
	return record, nil
}

func (m *MemoryStore) FindAll(ctx context.Context) ([]model.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.TransactionRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id int64) (model.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.TransactionRecord{}, ErrNotFound
}

func (m *MemoryStore) FindBySide(ctx context.Context, side model.OrderSide) ([]model.TransactionRecord, error) {
	return m.Find(ctx, model.TransactionQuery{Side: side})
}

// Find 按条件过滤，Limit 取最新的若干条
func (m *MemoryStore) Find(ctx context.Context, q model.TransactionQuery) ([]model.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.TransactionRecord
	for _, r := range m.records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
