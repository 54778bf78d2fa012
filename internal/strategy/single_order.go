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

const SingleOrderName = "single-order-scalp"

func init() {
	Register(SingleOrderName, func(deps Deps, items ConfigItems) (TradingStrategy, error) {
		return NewSingleOrderStrategy(deps, items)
	})
}

var _ TradingStrategy = (*SingleOrderStrategy)(nil)
var _ StackInspector = (*SingleOrderStrategy)(nil)

// SingleOrderStrategy 单单剥头皮策略：同一时间只有一笔挂单
// 买单成交后以 成交价*(1+最小收益) 卖出，卖单成交后立即按买一价回补
type SingleOrderStrategy struct {
	id        string
	cfg       SingleOrderConfig
	market    exchange.MarketAccess
	deps      Deps
	lastOrder *model.OrderState
}

func NewSingleOrderStrategy(deps Deps, items ConfigItems) (*SingleOrderStrategy, error) {
	if deps.Market == nil {
		return nil, fmt.Errorf("%w: market access is required", ErrInvalidConfig)
	}
	cfg, err := ParseSingleOrderConfig(items)
	if err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	return &SingleOrderStrategy{
		id:     SingleOrderName,
		cfg:    cfg,
		market: deps.Market,
		deps:   deps,
	}, nil
}

func (s *SingleOrderStrategy) ID() string {
	return s.id
}

func (s *SingleOrderStrategy) LastOrder() (model.OrderState, bool) {
	if s.lastOrder == nil {
		return model.OrderState{}, false
	}
	return *s.lastOrder, true
}

// Depths 未成交的那笔订单计入对应方向
func (s *SingleOrderStrategy) Depths() (buys, sells int) {
	if s.lastOrder == nil {
		return 0, 0
	}
	if s.lastOrder.Side == model.Buy {
		return 1, 0
	}
	return 0, 1
}

func (s *SingleOrderStrategy) Execute(ctx context.Context) error {
	bid, ask, err := s.market.TopOfBook(ctx)
	if err != nil {
		return classify(s.id, s.market.MarketName(), "top of book", err)
	}
	logger.Infof("[%s] %s bid=%s ask=%s", s.id, s.market.MarketName(), bid, ask)

	var op string
	switch {
	case s.lastOrder == nil:
		op, err = "initial buy", s.buyAt(ctx, bid, nil)
	case s.lastOrder.Side == model.Buy:
		op, err = "sell after buy fill", s.handleBuy(ctx, bid)
	default:
		op, err = "rebuy after sell fill", s.handleSell(ctx, bid, ask)
	}
	if err != nil {
		return classify(s.id, s.market.MarketName(), op, err)
	}
	return nil
}

// buyAt filled 非空时表示这是卖单成交后的回补，新买单提交成功后才记录卖单成交
func (s *SingleOrderStrategy) buyAt(ctx context.Context, bid decimal.Decimal, filled *model.OrderState) error {
	qty, err := budgetQuantity(ctx, s.market, s.cfg.BuyOrderAmount)
	if err != nil {
		return err
	}
	buy, err := s.market.SubmitBuy(ctx, qty, bid)
	if err != nil {
		if filled != nil {
			persistFillOnFatal(ctx, s.deps, s.id, *filled, err)
		}
		return err
	}
	if filled != nil {
		persist(ctx, s.deps, s.id, *filled, model.StatusFilled)
	}
	persist(ctx, s.deps, s.id, buy, model.StatusSent)
	s.lastOrder = &buy
	logger.Infof("[%s] BUY %s sent: %s @ %s", s.id, buy.ID, buy.Quantity, buy.Price)
	return nil
}

func (s *SingleOrderStrategy) handleBuy(ctx context.Context, bid decimal.Decimal) error {
	last := *s.lastOrder
	open, err := s.market.IsOpen(ctx, last.ID)
	if err != nil {
		return err
	}
	if open {
		logger.Infof("[%s] BUY %s still open @ %s, bid=%s, holding", s.id, last.ID, last.Price, bid)
		return nil
	}

	newAsk := last.Price.Mul(one.Add(s.cfg.MinimumPercentageGain)).Round(consts.AmountScale)
	sell, err := s.market.SubmitSell(ctx, last.Quantity, newAsk)
	if err != nil {
		persistFillOnFatal(ctx, s.deps, s.id, last, err)
		return err
	}
	persist(ctx, s.deps, s.id, last, model.StatusFilled)
	persist(ctx, s.deps, s.id, sell, model.StatusSent)
	s.lastOrder = &sell
	logger.Infof("[%s] BUY %s filled @ %s, SELL %s sent: %s @ %s",
		s.id, last.ID, last.Price, sell.ID, sell.Quantity, sell.Price)
	return nil
}

func (s *SingleOrderStrategy) handleSell(ctx context.Context, bid, ask decimal.Decimal) error {
	last := *s.lastOrder
	open, err := s.market.IsOpen(ctx, last.ID)
	if err != nil {
		return err
	}
	if !open {
		logger.Infof("[%s] SELL %s filled @ %s, rebuy at bid %s", s.id, last.ID, last.Price, bid)
		return s.buyAt(ctx, bid, &last)
	}

	switch ask.Cmp(last.Price) {
	case -1:
		logger.Infof("[%s] ask %s is LOWER than SELL %s price %s, holding", s.id, ask, last.ID, last.Price)
	case 1:
		logger.Infof("[%s] ask %s is HIGHER than SELL %s price %s, holding", s.id, ask, last.ID, last.Price)
	default:
		logger.Infof("[%s] ask %s is EQUAL to SELL %s price %s, holding", s.id, ask, last.ID, last.Price)
	}
	return nil
}
