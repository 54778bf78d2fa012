package strategy

import (
	"context"
	"scalpbot/internal/exchange"
	"scalpbot/internal/model"
	"scalpbot/internal/transaction"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// stubMarket 可控的市场，未显式标记为 open 的订单都视为已成交
type stubMarket struct {
	bid, ask  decimal.Decimal
	last      decimal.Decimal
	fixedQty  *decimal.Decimal
	emptyBook bool

	open      map[string]bool
	nextID    int
	submitted []model.OrderState
	// 方法名 -> 下一次调用返回的错误
	faults map[string]error
}

func newStubMarket(bid, ask, last string) *stubMarket {
	return &stubMarket{
		bid:    dec(bid),
		ask:    dec(ask),
		last:   dec(last),
		open:   make(map[string]bool),
		faults: make(map[string]error),
	}
}

func (m *stubMarket) fault(method string) error {
	err := m.faults[method]
	delete(m.faults, method)
	return err
}

func (m *stubMarket) TopOfBook(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if err := m.fault("TopOfBook"); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if m.emptyBook {
		return decimal.Zero, decimal.Zero, exchange.ErrNoLiquidity
	}
	return m.bid, m.ask, nil
}

func (m *stubMarket) SubmitBuy(ctx context.Context, quantity, price decimal.Decimal) (model.OrderState, error) {
	return m.submit(model.Buy, quantity, price)
}

func (m *stubMarket) SubmitSell(ctx context.Context, quantity, price decimal.Decimal) (model.OrderState, error) {
	return m.submit(model.Sell, quantity, price)
}

func (m *stubMarket) submit(side model.OrderSide, quantity, price decimal.Decimal) (model.OrderState, error) {
	if err := m.fault("Submit"); err != nil {
		return model.OrderState{}, err
	}
	m.nextID++
	o := model.OrderState{ID: strconv.Itoa(m.nextID), Side: side, Price: price, Quantity: quantity}
	m.submitted = append(m.submitted, o)
	return o, nil
}

func (m *stubMarket) IsOpen(ctx context.Context, orderID string) (bool, error) {
	if err := m.fault("IsOpen"); err != nil {
		return false, err
	}
	return m.open[orderID], nil
}

func (m *stubMarket) QuantityForBudget(ctx context.Context, counterAmount decimal.Decimal) (decimal.Decimal, error) {
	if m.fixedQty != nil {
		return *m.fixedQty, nil
	}
	q, _ := counterAmount.QuoRem(m.last, 8)
	return q, nil
}

func (m *stubMarket) MarketName() string { return "BTC/USD" }

func (m *stubMarket) ExchangeName() string { return "stub" }

func newDeps(m *stubMarket) (Deps, *transaction.MemoryStore) {
	store := transaction.NewMemoryStore()
	return Deps{
		Market: m,
		Sink:   store,
		Clock:  fixedClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, store
}

func records(t *testing.T, store *transaction.MemoryStore) []model.TransactionRecord {
	t.Helper()
	all, err := store.FindAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return all
}

func assertRecord(t *testing.T, r model.TransactionRecord, side model.OrderSide, status model.TransactionStatus, price, amount string) {
	t.Helper()
	if r.Side != side || r.Status != status || !r.Price.Equal(dec(price)) || !r.Amount.Equal(dec(amount)) {
		t.Errorf("record = %s %s %s @ %s, want %s %s %s @ %s",
			r.Side, r.Status, r.Amount, r.Price, side, status, amount, price)
	}
	if r.Market != "BTC/USD" || r.ExchangeAPI != "stub" {
		t.Errorf("record labels = %s %s", r.Market, r.ExchangeAPI)
	}
}
