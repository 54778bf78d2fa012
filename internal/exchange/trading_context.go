package exchange

import (
	"context"
	"fmt"
	"scalpbot/internal/consts"
	"scalpbot/internal/model"

	"github.com/shopspring/decimal"
)

// MarketAccess 策略看到的市场，只包含下单、查单和报价
type MarketAccess interface {
	// 买一和卖一，任一侧为空返回 ErrNoLiquidity
	TopOfBook(ctx context.Context) (bid, ask decimal.Decimal, err error)
	SubmitBuy(ctx context.Context, quantity, price decimal.Decimal) (model.OrderState, error)
	SubmitSell(ctx context.Context, quantity, price decimal.Decimal) (model.OrderState, error)
	// 订单不在未成交列表中即视为全部成交
	IsOpen(ctx context.Context, orderID string) (bool, error)
	// 用计价货币金额按最新成交价换算基础货币数量，向下截断到 8 位
	QuantityForBudget(ctx context.Context, counterAmount decimal.Decimal) (decimal.Decimal, error)
	MarketName() string
	ExchangeName() string
}

var _ MarketAccess = (*TradingContext)(nil)

// TradingContext 把 Exchange 收窄到单一市场
type TradingContext struct {
	venue  Exchange
	market Market
}

func NewTradingContext(venue Exchange, market Market) *TradingContext {
	return &TradingContext{venue: venue, market: market}
}

func (t *TradingContext) Market() Market {
	return t.market
}

func (t *TradingContext) MarketName() string {
	return t.market.Name
}

func (t *TradingContext) ExchangeName() string {
	return t.venue.Name()
}

func (t *TradingContext) TopOfBook(ctx context.Context) (bid, ask decimal.Decimal, err error) {
	book, err := t.venue.GetOrderBook(ctx, t.market.ID)
	if err != nil {
		return
	}
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		err = ErrNoLiquidity
		return
	}
	bid, ask = book.Bids[0].Price, book.Asks[0].Price
	if !bid.IsPositive() || !ask.IsPositive() {
		err = fmt.Errorf("%w: non-positive top of book bid=%s ask=%s", ErrApiFault, bid, ask)
	}
	return
}

func (t *TradingContext) SubmitBuy(ctx context.Context, quantity, price decimal.Decimal) (model.OrderState, error) {
	return t.submit(ctx, model.Buy, quantity, price)
}

func (t *TradingContext) SubmitSell(ctx context.Context, quantity, price decimal.Decimal) (model.OrderState, error) {
	return t.submit(ctx, model.Sell, quantity, price)
}

func (t *TradingContext) submit(ctx context.Context, side model.OrderSide, quantity, price decimal.Decimal) (model.OrderState, error) {
	id, err := t.venue.PlaceOrder(ctx, t.market.ID, side, quantity, price)
	if err != nil {
		return model.OrderState{}, err
	}
	if id == "" {
		return model.OrderState{}, fmt.Errorf("%w: empty order id for %s order", ErrApiFault, side)
	}
	return model.OrderState{
		ID:       id,
		Side:     side,
		Price:    price,
		Quantity: quantity,
	}, nil
}

func (t *TradingContext) IsOpen(ctx context.Context, orderID string) (bool, error) {
	orders, err := t.venue.OpenOrders(ctx, t.market.ID)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.ID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (t *TradingContext) QuantityForBudget(ctx context.Context, counterAmount decimal.Decimal) (decimal.Decimal, error) {
	last, err := t.venue.GetLastPrice(ctx, t.market.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !last.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive last trade price %s", ErrApiFault, last)
	}
	q, _ := counterAmount.QuoRem(last, consts.AmountScale)
	return q, nil
}
