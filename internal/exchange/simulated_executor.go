package exchange

import (
	"context"
	"fmt"
	"scalpbot/internal/consts"
	"scalpbot/internal/model"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const SimulatorName = "market-simulator"

// Operation 模拟器的调用类型，用于注入故障
type Operation string

const (
	OpOrderBook  Operation = "order_book"
	OpPlaceOrder Operation = "place_order"
	OpOpenOrders Operation = "open_orders"
	OpLastPrice  Operation = "last_price"
)

// SimulatorOptions 模拟器参数
type SimulatorOptions struct {
	// 买一卖一相对中间价的偏离比例
	Spread         decimal.Decimal
	InitialBase    decimal.Decimal
	InitialCounter decimal.Decimal
	// 为 true 时只有价格穿过委托价才成交，否则查询即成交
	CrossingFills bool
	Start         time.Time
	CycleInterval time.Duration
}

func DefaultSimulatorOptions() SimulatorOptions {
	return SimulatorOptions{
		Spread:         decimal.RequireFromString("0.00001"),
		InitialBase:    decimal.RequireFromString("0.02"),
		InitialCounter: decimal.NewFromInt(500),
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CycleInterval:  time.Minute,
	}
}

// 模拟交易所：按固定的中间价序列回放行情
type MarketSimulator struct {
	mu      sync.Mutex
	market  Market
	series  []decimal.Decimal
	cursor  int
	opts    SimulatorOptions
	nextID  int64
	open    []OpenOrder
	balance map[string]decimal.Decimal
	faults  map[Operation]error
}

var _ Exchange = (*MarketSimulator)(nil)

func NewMarketSimulator(market Market, series []decimal.Decimal, opts SimulatorOptions) (*MarketSimulator, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty price series", ErrApiFault)
	}
	if opts.Spread.IsNegative() || opts.Spread.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: spread %s out of range", ErrApiFault, opts.Spread)
	}
	if opts.CycleInterval <= 0 {
		opts.CycleInterval = time.Minute
	}
	return &MarketSimulator{
		market: market,
		series: append([]decimal.Decimal(nil), series...),
		opts:   opts,
		balance: map[string]decimal.Decimal{
			market.BaseCurrency:    opts.InitialBase,
			market.CounterCurrency: opts.InitialCounter,
		},
		faults: make(map[Operation]error),
	}, nil
}

func (s *MarketSimulator) Name() string {
	return SimulatorName
}

func (s *MarketSimulator) Account() Account {
	return s
}

// InjectFault 下一次调用 op 时返回 err
func (s *MarketSimulator) InjectFault(op Operation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *MarketSimulator) takeFault(op Operation) error {
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

// Advance 进入下一个采样点
func (s *MarketSimulator) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor++
}

func (s *MarketSimulator) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *MarketSimulator) Len() int {
	return len(s.series)
}

// Now 当前采样点的虚拟时间
func (s *MarketSimulator) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Start.Add(time.Duration(s.cursor) * s.opts.CycleInterval)
}

func (s *MarketSimulator) mid() (decimal.Decimal, error) {
	if s.cursor < 0 || s.cursor >= len(s.series) {
		return decimal.Zero, fmt.Errorf("%w: sample %d of %d", ErrIndexOutOfRange, s.cursor, len(s.series))
	}
	return s.series[s.cursor], nil
}

func (s *MarketSimulator) checkMarket(marketID string) error {
	if marketID != s.market.ID {
		return fmt.Errorf("%w: unknown market %s", ErrApiFault, marketID)
	}
	return nil
}

// GetOrderBook 中间价为 0 视为该采样点无报价
func (s *MarketSimulator) GetOrderBook(ctx context.Context, marketID string) (*OrderBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(OpOrderBook); err != nil {
		return nil, err
	}
	if err := s.checkMarket(marketID); err != nil {
		return nil, err
	}
	m, err := s.mid()
	if err != nil {
		return nil, err
	}
	book := &OrderBook{}
	if !m.IsPositive() {
		return book, nil
	}
	one := decimal.NewFromInt(1)
	bid := m.Mul(one.Sub(s.opts.Spread)).Round(consts.AmountScale)
	ask := m.Mul(one.Add(s.opts.Spread)).Round(consts.AmountScale)
	book.Bids = []PriceLevel{{Price: bid, Quantity: one}}
	book.Asks = []PriceLevel{{Price: ask, Quantity: one}}
	return book, nil
}

func (s *MarketSimulator) PlaceOrder(ctx context.Context, marketID string, side model.OrderSide, quantity, price decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(OpPlaceOrder); err != nil {
		return "", err
	}
	if err := s.checkMarket(marketID); err != nil {
		return "", err
	}
	if !side.Valid() {
		return "", fmt.Errorf("%w: invalid side %q", ErrApiFault, side)
	}
	if !quantity.IsPositive() || !price.IsPositive() {
		return "", fmt.Errorf("%w: invalid order %s @ %s", ErrApiFault, quantity, price)
	}

	s.nextID++
	id := strconv.FormatInt(s.nextID, 10)
	s.open = append(s.open, OpenOrder{
		ID:        id,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: s.opts.Start.Add(time.Duration(s.cursor) * s.opts.CycleInterval),
	})
	return id, nil
}

// OpenOrders 返回前先撮合：成交的订单结算进账本并移出未成交列表
func (s *MarketSimulator) OpenOrders(ctx context.Context, marketID string) ([]OpenOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(OpOpenOrders); err != nil {
		return nil, err
	}
	if err := s.checkMarket(marketID); err != nil {
		return nil, err
	}

	var m decimal.Decimal
	if s.opts.CrossingFills {
		var err error
		if m, err = s.mid(); err != nil {
			return nil, err
		}
	}

	remaining := s.open[:0]
	for _, o := range s.open {
		if s.opts.CrossingFills && !crossed(o, m) {
			remaining = append(remaining, o)
			continue
		}
		s.settle(o)
	}
	s.open = remaining

	out := make([]OpenOrder, len(s.open))
	copy(out, s.open)
	return out, nil
}

func crossed(o OpenOrder, mid decimal.Decimal) bool {
	if !mid.IsPositive() {
		return false
	}
	if o.Side == model.Buy {
		return mid.LessThanOrEqual(o.Price)
	}
	return mid.GreaterThanOrEqual(o.Price)
}

// 按委托价结算，不收手续费
func (s *MarketSimulator) settle(o OpenOrder) {
	base, counter := s.market.BaseCurrency, s.market.CounterCurrency
	notional := o.Quantity.Mul(o.Price)
	switch o.Side {
	case model.Buy:
		s.balance[base] = s.balance[base].Add(o.Quantity)
		s.balance[counter] = s.balance[counter].Sub(notional)
	case model.Sell:
		s.balance[base] = s.balance[base].Sub(o.Quantity)
		s.balance[counter] = s.balance[counter].Add(notional)
	}
}

func (s *MarketSimulator) GetLastPrice(ctx context.Context, marketID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(OpLastPrice); err != nil {
		return decimal.Zero, err
	}
	if err := s.checkMarket(marketID); err != nil {
		return decimal.Zero, err
	}
	return s.mid()
}

func (s *MarketSimulator) CancelOrder(ctx context.Context, marketID string, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMarket(marketID); err != nil {
		return err
	}
	for i, o := range s.open {
		if o.ID == orderID {
			s.open = append(s.open[:i], s.open[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
}

func (s *MarketSimulator) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(s.balance))
	for k, v := range s.balance {
		out[k] = v
	}
	return out, nil
}

// CurrentPrice 当前采样点价格，序列用完后取最后一个
func (s *MarketSimulator) CurrentPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPrice()
}

func (s *MarketSimulator) currentPrice() decimal.Decimal {
	i := s.cursor
	if i >= len(s.series) {
		i = len(s.series) - 1
	}
	return s.series[i]
}

// PortfolioValue 计价货币余额 + 基础货币余额 * 当前价格
func (s *MarketSimulator) PortfolioValue() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.balance[s.market.BaseCurrency]
	counter := s.balance[s.market.CounterCurrency]
	return counter.Add(base.Mul(s.currentPrice()))
}
