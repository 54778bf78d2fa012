package strategy

import (
	"context"
	"fmt"
	"scalpbot/internal/consts"
	"scalpbot/internal/exchange"
	"scalpbot/internal/model"
	"scalpbot/pkg/logger"

	"github.com/shopspring/decimal"
)

const MultiOrderName = "multi-order-scalp"

func init() {
	Register(MultiOrderName, func(deps Deps, items ConfigItems) (TradingStrategy, error) {
		return NewMultiOrderStrategy(deps, items)
	})
}

var _ TradingStrategy = (*MultiOrderStrategy)(nil)
var _ StackInspector = (*MultiOrderStrategy)(nil)

// MultiOrderStrategy 多单剥头皮策略
//
// 买单成交后立即以 成交价*(1+阈值) 挂卖单；价格较上一笔订单下跌超过阈值且
// 挂出的卖单数未达上限时继续低位买入。买单和卖单各用一个栈管理，只检查栈顶。
type MultiOrderStrategy struct {
	id     string
	cfg    MultiOrderConfig
	market exchange.MarketAccess
	deps   Deps

	buys  orderStack
	sells orderStack
	// 低位买入的参考订单，nil 表示尚未下过单
	// 新买单提交后指向该买单；买单成交挂出卖单后仍指向成交的买单，而不是新卖单
	lastOrder *model.OrderState
}

func NewMultiOrderStrategy(deps Deps, items ConfigItems) (*MultiOrderStrategy, error) {
	if deps.Market == nil {
		return nil, fmt.Errorf("%w: market access is required", ErrInvalidConfig)
	}
	cfg, err := ParseMultiOrderConfig(items)
	if err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	return &MultiOrderStrategy{
		id:     MultiOrderName,
		cfg:    cfg,
		market: deps.Market,
		deps:   deps,
	}, nil
}

func (s *MultiOrderStrategy) ID() string {
	return s.id
}

func (s *MultiOrderStrategy) Config() MultiOrderConfig {
	return s.cfg
}

func (s *MultiOrderStrategy) Depths() (buys, sells int) {
	return s.buys.Len(), s.sells.Len()
}

// OpenBuys 栈底到栈顶
func (s *MultiOrderStrategy) OpenBuys() []model.OrderState {
	return s.buys.Snapshot()
}

func (s *MultiOrderStrategy) OpenSells() []model.OrderState {
	return s.sells.Snapshot()
}

func (s *MultiOrderStrategy) LastOrder() (model.OrderState, bool) {
	if s.lastOrder == nil {
		return model.OrderState{}, false
	}
	return *s.lastOrder, true
}

func (s *MultiOrderStrategy) Execute(ctx context.Context) error {
	bid, ask, err := s.market.TopOfBook(ctx)
	if err != nil {
		return s.abandon("top of book", err)
	}
	logger.Infof("[%s] %s bid=%s ask=%s buys=%d sells=%d",
		s.id, s.market.MarketName(), bid, ask, s.buys.Len(), s.sells.Len())

	// 首次运行，按卖一价买入
	if s.lastOrder == nil {
		if err := s.sendInitialBuy(ctx, ask); err != nil {
			return s.abandon("initial buy", err)
		}
		return nil
	}

	if err := s.sellIfBuyFilled(ctx); err != nil {
		return s.abandon("sell after buy fill", err)
	}
	if err := s.checkSellFilled(ctx, bid); err != nil {
		return s.abandon("check sell fill", err)
	}
	if err := s.buyIfPriceDropped(ctx, bid); err != nil {
		return s.abandon("buy on price drop", err)
	}
	return nil
}

func (s *MultiOrderStrategy) sendInitialBuy(ctx context.Context, ask decimal.Decimal) error {
	qty, err := s.quantity(ctx)
	if err != nil {
		return err
	}
	buy, err := s.market.SubmitBuy(ctx, qty, ask)
	if err != nil {
		return err
	}
	s.buys.Push(buy)
	s.persist(ctx, buy, model.StatusSent)
	s.lastOrder = &buy
	logger.Infof("[%s] initial BUY %s sent: %s @ %s", s.id, buy.ID, buy.Quantity, buy.Price)
	return nil
}

// sellIfBuyFilled 栈顶买单成交后按 成交价*(1+阈值) 挂出同数量的卖单
// 卖单提交成功后才出栈，临时错误时栈保持不变，下一轮重试
func (s *MultiOrderStrategy) sellIfBuyFilled(ctx context.Context) error {
	top, ok := s.buys.Peek()
	if !ok {
		return nil
	}
	open, err := s.market.IsOpen(ctx, top.ID)
	if err != nil {
		return err
	}
	if open {
		logger.Infof("[%s] BUY %s still open @ %s, holding", s.id, top.ID, top.Price)
		return nil
	}

	newAsk := top.Price.Mul(one.Add(s.cfg.PercentChangeThreshold)).RoundUp(consts.AmountScale)
	sell, err := s.market.SubmitSell(ctx, top.Quantity, newAsk)
	if err != nil {
		s.persistFillOnFatal(ctx, top, err)
		return err
	}

	s.buys.Pop()
	s.persist(ctx, top, model.StatusFilled)
	s.sells.Push(sell)
	s.persist(ctx, sell, model.StatusSent)
	// 下跌阈值以成交的买入价为基准，以卖单价为基准时小阈值在横盘中也会触发买入
	s.lastOrder = &top
	logger.Infof("[%s] BUY %s filled @ %s, SELL %s sent: %s @ %s",
		s.id, top.ID, top.Price, sell.ID, sell.Quantity, sell.Price)
	return nil
}

// checkSellFilled 卖单成交只记录，不立即回补
func (s *MultiOrderStrategy) checkSellFilled(ctx context.Context, bid decimal.Decimal) error {
	top, ok := s.sells.Peek()
	if !ok {
		return nil
	}
	open, err := s.market.IsOpen(ctx, top.ID)
	if err != nil {
		return err
	}
	if !open {
		s.sells.Pop()
		s.persist(ctx, top, model.StatusFilled)
		logger.Infof("[%s] SELL %s filled @ %s", s.id, top.ID, top.Price)
		return nil
	}

	logger.Infof("[%s] SELL %s still open @ %s, bid=%s", s.id, top.ID, top.Price, bid)
	if bid.GreaterThan(top.Price) {
		logger.Errorf("[%s] bid %s is above open SELL %s price %s, order should have filled",
			s.id, bid, top.ID, top.Price)
	}
	return nil
}

func (s *MultiOrderStrategy) buyIfPriceDropped(ctx context.Context, bid decimal.Decimal) error {
	trigger := s.lastOrder.Price.Mul(one.Sub(s.cfg.PercentChangeThreshold))
	if !bid.LessThan(trigger) {
		return nil
	}
	if s.sells.Len() >= s.cfg.MaxConcurrentSellOrders {
		logger.Infof("[%s] bid %s below %s but %d SELL orders already open, skip buy",
			s.id, bid, trigger, s.sells.Len())
		return nil
	}

	qty, err := s.quantity(ctx)
	if err != nil {
		return err
	}
	buy, err := s.market.SubmitBuy(ctx, qty, bid)
	if err != nil {
		return err
	}
	s.buys.Push(buy)
	s.persist(ctx, buy, model.StatusSent)
	s.lastOrder = &buy
	logger.Infof("[%s] price dropped below %s, BUY %s sent: %s @ %s", s.id, trigger, buy.ID, buy.Quantity, buy.Price)
	return nil
}

func (s *MultiOrderStrategy) quantity(ctx context.Context) (decimal.Decimal, error) {
	return budgetQuantity(ctx, s.market, s.cfg.BuyOrderAmount)
}

func (s *MultiOrderStrategy) persist(ctx context.Context, o model.OrderState, status model.TransactionStatus) {
	persist(ctx, s.deps, s.id, o, status)
}

func (s *MultiOrderStrategy) persistFillOnFatal(ctx context.Context, filled model.OrderState, err error) {
	persistFillOnFatal(ctx, s.deps, s.id, filled, err)
}

func (s *MultiOrderStrategy) abandon(op string, err error) error {
	return classify(s.id, s.market.MarketName(), op, err)
}

func budgetQuantity(ctx context.Context, market exchange.MarketAccess, amount decimal.Decimal) (decimal.Decimal, error) {
	qty, err := market.QuantityForBudget(ctx, amount)
	if err != nil {
		return decimal.Zero, err
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: budget %s", ErrQuantityTooSmall, amount)
	}
	return qty, nil
}

// persist 写流水失败只记录日志，不回滚挂单栈
func persist(ctx context.Context, deps Deps, strategyID string, o model.OrderState, status model.TransactionStatus) {
	rec := model.NewTransactionRecord(o, status, deps.Market.MarketName(), strategyID, deps.Market.ExchangeName(), deps.Clock.Now())
	if _, err := deps.Sink.Save(ctx, rec); err != nil {
		logger.Errorf("[%s] persist %s %s %s failed: %v", strategyID, o.Side, o.ID, status, err)
	}
}

// persistFillOnFatal 已确认成交但后续下单遇到致命错误时补记成交流水
// 临时错误下一轮会重新发现成交，此时不记录以免重复
func persistFillOnFatal(ctx context.Context, deps Deps, strategyID string, filled model.OrderState, err error) {
	if exchange.IsTransient(err) {
		return
	}
	persist(ctx, deps, strategyID, filled, model.StatusFilled)
}

// classify 临时错误放弃本轮返回 nil，其余包装为致命错误
func classify(strategyID, market, op string, err error) error {
	if exchange.IsTransient(err) {
		logger.Warnf("[%s] %s %s: %v, skip this cycle", strategyID, market, op, err)
		return nil
	}
	logger.Errorf("[%s] %s %s failed: %v", strategyID, market, op, err)
	return &Error{StrategyID: strategyID, Op: op, Err: err}
}
