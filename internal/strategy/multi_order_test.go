package strategy

import (
	"context"
	"errors"
	"scalpbot/internal/exchange"
	"scalpbot/internal/model"
	"scalpbot/internal/transaction"
	"testing"
)

func newMulti(t *testing.T, m *stubMarket, items ConfigItems) (*MultiOrderStrategy, *transaction.MemoryStore) {
	t.Helper()
	deps, store := newDeps(m)
	s, err := NewMultiOrderStrategy(deps, items)
	if err != nil {
		t.Fatalf("NewMultiOrderStrategy fail: %v", err)
	}
	return s, store
}

func TestMultiOrder_InitialBuyAtAsk(t *testing.T) {
	m := newStubMarket("1453.014", "1455.016", "1453.014")
	s, store := newMulti(t, m, ConfigItems{
		KeyBuyOrderAmount:         "20",
		KeyPercentChangeThreshold: "2",
	})

	if err := s.Execute(context.Background()); err != nil {
		t.Fatalf("Execute fail: %v", err)
	}

	if len(m.submitted) != 1 {
		t.Fatalf("submitted = %d", len(m.submitted))
	}
	buy := m.submitted[0]
	// 20 / 1453.014 = 0.01376449228...，向下截断
	if buy.Side != model.Buy || !buy.Price.Equal(dec("1455.016")) || !buy.Quantity.Equal(dec("0.01376449")) {
		t.Errorf("initial buy = %+v", buy)
	}
	recs := records(t, store)
	if len(recs) != 1 {
		t.Fatalf("records = %d", len(recs))
	}
	assertRecord(t, recs[0], model.Buy, model.StatusSent, "1455.016", "0.01376449")
	if recs[0].StrategyID != MultiOrderName {
		t.Errorf("strategy id = %s", recs[0].StrategyID)
	}
	if b, sl := s.Depths(); b != 1 || sl != 0 {
		t.Errorf("depths = %d/%d", b, sl)
	}
	last, ok := s.LastOrder()
	if !ok || last.ID != buy.ID {
		t.Errorf("last order = %+v", last)
	}
}

func TestMultiOrder_FilledBuyPlacesSellAboveFill(t *testing.T) {
	m := newStubMarket("1453.014", "1454.018", "1454.018")
	qty := dec("35")
	m.fixedQty = &qty
	s, store := newMulti(t, m, ConfigItems{
		KeyBuyOrderAmount:         "50000",
		KeyPercentChangeThreshold: "2",
	})
	ctx := context.Background()

	// 第一轮买入，买单挂着
	m.open["1"] = true
	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if recs := records(t, store); len(recs) != 1 {
		t.Fatalf("open buy should hold, records = %d", len(recs))
	}

	// 买单成交，卖单挂着；买一价在触发线之上
	m.open["1"] = false
	m.open["2"] = true
	m.bid = dec("1480")
	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}

	recs := records(t, store)
	if len(recs) != 3 {
		t.Fatalf("records = %d", len(recs))
	}
	assertRecord(t, recs[1], model.Buy, model.StatusFilled, "1454.018", "35")
	// 1454.018 * 1.02 = 1483.09836
	assertRecord(t, recs[2], model.Sell, model.StatusSent, "1483.09836", "35")
	if b, sl := s.Depths(); b != 0 || sl != 1 {
		t.Errorf("depths = %d/%d", b, sl)
	}
	// 下跌阈值仍以成交的买单为基准
	if last, _ := s.LastOrder(); last.ID != "1" || last.Side != model.Buy {
		t.Errorf("last order should be the filled buy, got %+v", last)
	}
}

func TestMultiOrder_SellPriceRoundsUp(t *testing.T) {
	m := newStubMarket("99", "100.00000001", "100")
	qty := dec("1")
	m.fixedQty = &qty
	s, _ := newMulti(t, m, ConfigItems{
		KeyBuyOrderAmount:         "100",
		KeyPercentChangeThreshold: "3",
	})
	ctx := context.Background()
	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	m.open["2"] = true
	m.bid = dec("103")
	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}

	// 100.00000001 * 1.03 = 103.0000000103
	sell := m.submitted[1]
	if !sell.Price.Equal(dec("103.00000002")) {
		t.Errorf("sell price = %s", sell.Price)
	}
}

func TestMultiOrder_EmptyBookSkipsCycle(t *testing.T) {
	m := newStubMarket("100", "101", "100")
	m.emptyBook = true
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})

	if err := s.Execute(context.Background()); err != nil {
		t.Fatalf("empty book must not be fatal: %v", err)
	}
	if len(m.submitted) != 0 || store.Len() != 0 {
		t.Errorf("submitted=%d records=%d", len(m.submitted), store.Len())
	}
	if _, ok := s.LastOrder(); ok {
		t.Error("no order should be recorded")
	}
}

func TestMultiOrder_TimeoutLeavesStateUnchanged(t *testing.T) {
	m := newStubMarket("100", "101", "100")
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})
	ctx := context.Background()

	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}

	// 买单已成交，但挂卖单超时
	m.faults["Submit"] = exchange.ErrNetworkTimeout
	if err := s.Execute(ctx); err != nil {
		t.Fatalf("timeout must not be fatal: %v", err)
	}
	if b, sl := s.Depths(); b != 1 || sl != 0 {
		t.Errorf("stacks changed after timeout: %d/%d", b, sl)
	}
	if store.Len() != 1 {
		t.Errorf("records = %d", store.Len())
	}

	// 下一轮重试成功，流水不重复
	m.open["2"] = true
	m.bid = dec("104")
	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if b, sl := s.Depths(); b != 0 || sl != 1 {
		t.Errorf("depths after retry = %d/%d", b, sl)
	}
	recs := records(t, store)
	if len(recs) != 3 {
		t.Fatalf("records after retry = %d", len(recs))
	}
	assertRecord(t, recs[1], model.Buy, model.StatusFilled, "101", "0.5")
	assertRecord(t, recs[2], model.Sell, model.StatusSent, "105.04", "0.5")
}

func TestMultiOrder_TransientPollErrorSkipsCycle(t *testing.T) {
	m := newStubMarket("100", "101", "100")
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})
	ctx := context.Background()
	_ = s.Execute(ctx)

	m.faults["IsOpen"] = exchange.ErrNetworkTimeout
	m.bid = dec("50")
	if err := s.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	// 放弃整个周期，不会走到低位买入
	if len(m.submitted) != 1 || store.Len() != 1 {
		t.Errorf("submitted=%d records=%d", len(m.submitted), store.Len())
	}
}

func TestMultiOrder_ApiFaultIsFatal(t *testing.T) {
	m := newStubMarket("100", "101", "100")
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})

	m.faults["Submit"] = exchange.ErrApiFault
	err := s.Execute(context.Background())
	if !IsFatal(err) {
		t.Fatalf("expected fatal strategy error, got %v", err)
	}
	if !errors.Is(err, exchange.ErrApiFault) {
		t.Errorf("fatal error should unwrap to the cause: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("records = %d", store.Len())
	}

	m.faults["TopOfBook"] = errors.New("malformed order book response")
	if err := s.Execute(context.Background()); !IsFatal(err) {
		t.Errorf("unknown errors are fatal, got %v", err)
	}
}

func TestMultiOrder_SellFillDoesNotRebuy(t *testing.T) {
	m := newStubMarket("100", "100", "100")
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})
	ctx := context.Background()

	_ = s.Execute(ctx) // buy 1
	_ = s.Execute(ctx) // buy 1 成交，sell 2 挂出并在同一轮成交
	_ = s.Execute(ctx)

	if b, sl := s.Depths(); b != 0 || sl != 0 {
		t.Fatalf("depths = %d/%d", b, sl)
	}
	if len(m.submitted) != 2 {
		t.Errorf("submitted = %d", len(m.submitted))
	}
	recs := records(t, store)
	if len(recs) != 4 {
		t.Fatalf("records = %d", len(recs))
	}
	assertRecord(t, recs[3], model.Sell, model.StatusFilled, "104", "0.5")
}

func TestMultiOrder_BuysOnDropUntilSellLimit(t *testing.T) {
	ctx := context.Background()
	run := func(maxSells string) (*MultiOrderStrategy, *stubMarket, *transaction.MemoryStore) {
		m := newStubMarket("100", "100", "100")
		s, store := newMulti(t, m, ConfigItems{
			KeyBuyOrderAmount:          "50",
			KeyPercentChangeThreshold:  "4",
			KeyMaxConcurrentSellOrders: maxSells,
		})
		m.open["2"] = true
		_ = s.Execute(ctx) // buy 1 @ 100
		_ = s.Execute(ctx) // sell 2 @ 104 挂着

		// 100 * 0.96 = 96，跌破
		m.bid = dec("90")
		if err := s.Execute(ctx); err != nil {
			t.Fatal(err)
		}
		return s, m, store
	}

	// 卖单已达上限，不再买入
	s, m, _ := run("1")
	if len(m.submitted) != 2 {
		t.Fatalf("sell limit reached, submitted = %d", len(m.submitted))
	}
	if b, sl := s.Depths(); b != 0 || sl != 1 {
		t.Errorf("depths = %d/%d", b, sl)
	}

	s, m, store := run("2")
	if len(m.submitted) != 3 {
		t.Fatalf("submitted = %d", len(m.submitted))
	}
	buy := m.submitted[2]
	if buy.Side != model.Buy || !buy.Price.Equal(dec("90")) {
		t.Errorf("drop buy = %+v", buy)
	}
	if last, _ := s.LastOrder(); last.ID != buy.ID {
		t.Errorf("last order = %+v", last)
	}
	if b, sl := s.Depths(); b != 1 || sl != 1 {
		t.Errorf("depths = %d/%d", b, sl)
	}
	if store.Len() != 4 {
		t.Errorf("records = %d", store.Len())
	}
}

func TestMultiOrder_SmallThresholdFlatBook(t *testing.T) {
	// 买卖价差 0.002%，阈值 0.1%
	m := newStubMarket("99.999", "100.001", "100")
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "0.1"})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := s.Execute(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if len(m.submitted) != 2 {
		t.Fatalf("flat book should only buy once and sell once, submitted = %+v", m.submitted)
	}
	if m.submitted[0].Side != model.Buy || m.submitted[1].Side != model.Sell {
		t.Errorf("submitted = %+v", m.submitted)
	}
	if store.Len() != 4 {
		t.Errorf("records = %d", store.Len())
	}
}

func TestMultiOrder_FatalSellSubmitRecordsFill(t *testing.T) {
	m := newStubMarket("100", "101", "100")
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})
	ctx := context.Background()
	_ = s.Execute(ctx)

	m.faults["Submit"] = exchange.ErrApiFault
	if err := s.Execute(ctx); !IsFatal(err) {
		t.Fatalf("expected fatal strategy error, got %v", err)
	}
	recs := records(t, store)
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	assertRecord(t, recs[1], model.Buy, model.StatusFilled, "101", "0.5")
	if b, sl := s.Depths(); b != 1 || sl != 0 {
		t.Errorf("depths = %d/%d", b, sl)
	}
}

func TestMultiOrder_BidAboveOpenSellOnlyLogs(t *testing.T) {
	m := newStubMarket("100", "100", "100")
	s, store := newMulti(t, m, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})
	ctx := context.Background()

	m.open["2"] = true
	_ = s.Execute(ctx)
	_ = s.Execute(ctx)
	before := store.Len()

	m.bid = dec("110")
	if err := s.Execute(ctx); err != nil {
		t.Fatalf("anomaly must not be fatal: %v", err)
	}
	if store.Len() != before {
		t.Errorf("records changed: %d -> %d", before, store.Len())
	}
	if b, sl := s.Depths(); b != 0 || sl != 1 {
		t.Errorf("depths = %d/%d", b, sl)
	}
}

func TestNewMultiOrderStrategy_Validation(t *testing.T) {
	if _, err := NewMultiOrderStrategy(Deps{}, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("missing market should fail, got %v", err)
	}
	m := newStubMarket("100", "100", "100")
	deps, _ := newDeps(m)
	if _, err := NewMultiOrderStrategy(deps, ConfigItems{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty items should fail, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	names := Names()
	if len(names) < 2 || names[0] != MultiOrderName || names[1] != SingleOrderName {
		t.Errorf("names = %v", names)
	}
	if _, err := Get("unknown"); err == nil {
		t.Error("unknown strategy should fail")
	}
	m := newStubMarket("100", "100", "100")
	deps, _ := newDeps(m)
	s, err := New(MultiOrderName, deps, ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: "4"})
	if err != nil {
		t.Fatal(err)
	}
	if s.ID() != MultiOrderName {
		t.Errorf("id = %s", s.ID())
	}
}
