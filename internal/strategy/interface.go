package strategy

import (
	"context"
	"scalpbot/internal/exchange"
	"scalpbot/internal/transaction"
	"scalpbot/pkg/utils"
)

// TradingStrategy 调度器每个交易周期调用一次 Execute
// 返回 *Error 表示致命错误，调用方必须停止调度；临时错误在内部记录日志后返回 nil
type TradingStrategy interface {
	ID() string
	Execute(ctx context.Context) error
}

// StackInspector 可观察挂单栈深度的策略
type StackInspector interface {
	Depths() (buys, sells int)
}

// Deps 构造策略需要的外部依赖
type Deps struct {
	Market exchange.MarketAccess
	Sink   transaction.Sink
	// 流水时间戳来源，回测时使用模拟器的虚拟时间
	Clock utils.Clock
}

func (d Deps) withDefaults() Deps {
	if d.Sink == nil {
		d.Sink = transaction.Discard
	}
	if d.Clock == nil {
		d.Clock = utils.SystemClock{}
	}
	return d
}

// Factory 由配置项构造策略，配置非法时返回错误
type Factory func(deps Deps, items ConfigItems) (TradingStrategy, error)
