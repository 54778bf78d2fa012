package exchange

import (
	"context"
	"errors"
	"scalpbot/internal/model"
	"testing"

	"github.com/shopspring/decimal"
)

var testMarket = Market{ID: "btc_usd", Name: "BTC/USD", BaseCurrency: "BTC", CounterCurrency: "USD"}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestSimulator(t *testing.T, prices ...string) *MarketSimulator {
	t.Helper()
	series := make([]decimal.Decimal, 0, len(prices))
	for _, p := range prices {
		series = append(series, dec(p))
	}
	sim, err := NewMarketSimulator(testMarket, series, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewMarketSimulator fail: %v", err)
	}
	return sim
}

func TestMarketSimulator_OrderBookSpread(t *testing.T) {
	sim := newTestSimulator(t, "25000", "26000")
	ctx := context.Background()

	book, err := sim.GetOrderBook(ctx, testMarket.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !book.Bids[0].Price.Equal(dec("24999.75")) || !book.Asks[0].Price.Equal(dec("25000.25")) {
		t.Errorf("bid/ask = %s/%s", book.Bids[0].Price, book.Asks[0].Price)
	}

	sim.Advance()
	last, _ := sim.GetLastPrice(ctx, testMarket.ID)
	if !last.Equal(dec("26000")) {
		t.Errorf("last = %s", last)
	}

	sim.Advance()
	if _, err := sim.GetLastPrice(ctx, testMarket.ID); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := sim.GetOrderBook(ctx, testMarket.ID); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestMarketSimulator_FillOnObserve(t *testing.T) {
	sim := newTestSimulator(t, "100", "100")
	ctx := context.Background()

	id1, err := sim.PlaceOrder(ctx, testMarket.ID, model.Buy, dec("1"), dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	id2, _ := sim.PlaceOrder(ctx, testMarket.ID, model.Sell, dec("0.5"), dec("110"))
	if id1 != "1" || id2 != "2" {
		t.Errorf("ids = %s,%s", id1, id2)
	}

	open, err := sim.OpenOrders(ctx, testMarket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Fatalf("open orders = %d", len(open))
	}

	bal, _ := sim.Balances(ctx)
	// 0.02 + 1 - 0.5
	if !bal["BTC"].Equal(dec("0.52")) {
		t.Errorf("BTC = %s", bal["BTC"])
	}
	// 500 - 100 + 55
	if !bal["USD"].Equal(dec("455")) {
		t.Errorf("USD = %s", bal["USD"])
	}
	// 455 + 0.52 * 100
	if v := sim.PortfolioValue(); !v.Equal(dec("507")) {
		t.Errorf("portfolio = %s", v)
	}
}

func TestMarketSimulator_CrossingFills(t *testing.T) {
	opts := DefaultSimulatorOptions()
	opts.CrossingFills = true
	sim, err := NewMarketSimulator(testMarket, []decimal.Decimal{dec("100"), dec("95"), dec("120")}, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	buyID, _ := sim.PlaceOrder(ctx, testMarket.ID, model.Buy, dec("1"), dec("96"))
	sellID, _ := sim.PlaceOrder(ctx, testMarket.ID, model.Sell, dec("1"), dec("110"))

	open, _ := sim.OpenOrders(ctx, testMarket.ID)
	if len(open) != 2 {
		t.Fatalf("nothing should fill at 100, open = %d", len(open))
	}

	sim.Advance()
	open, _ = sim.OpenOrders(ctx, testMarket.ID)
	if len(open) != 1 || open[0].ID != sellID {
		t.Fatalf("buy %s should fill at 95, open = %+v", buyID, open)
	}

	sim.Advance()
	open, _ = sim.OpenOrders(ctx, testMarket.ID)
	if len(open) != 0 {
		t.Fatalf("sell should fill at 120, open = %+v", open)
	}
}

func TestMarketSimulator_Faults(t *testing.T) {
	sim := newTestSimulator(t, "100")
	ctx := context.Background()

	sim.InjectFault(OpPlaceOrder, ErrNetworkTimeout)
	if _, err := sim.PlaceOrder(ctx, testMarket.ID, model.Buy, dec("1"), dec("100")); !errors.Is(err, ErrNetworkTimeout) {
		t.Errorf("expected injected timeout, got %v", err)
	}
	// 只生效一次
	if _, err := sim.PlaceOrder(ctx, testMarket.ID, model.Buy, dec("1"), dec("100")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := sim.PlaceOrder(ctx, "eth_usd", model.Buy, dec("1"), dec("100")); !errors.Is(err, ErrApiFault) {
		t.Errorf("expected api fault for unknown market, got %v", err)
	}
	if err := sim.CancelOrder(ctx, testMarket.ID, "404"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMarketSimulator_VirtualClock(t *testing.T) {
	sim := newTestSimulator(t, "1", "2", "3")
	start := sim.Now()
	sim.Advance()
	sim.Advance()
	if d := sim.Now().Sub(start); d != 2*DefaultSimulatorOptions().CycleInterval {
		t.Errorf("elapsed = %s", d)
	}
}
