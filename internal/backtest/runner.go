package backtest

import (
	"context"
	"errors"
	"fmt"
	"scalpbot/internal/consts"
	"scalpbot/internal/exchange"
	"scalpbot/internal/model"
	"scalpbot/internal/strategy"
	"scalpbot/internal/transaction"
	"scalpbot/pkg/logger"
	"scalpbot/pkg/utils"
	"time"

	"github.com/google/uuid"
	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"
)

// CSVScenario 使用调用方提供的历史序列时报告中的场景名
const CSVScenario = "historical-csv"

var DefaultMarket = exchange.Market{
	ID:              "btc_usd",
	Name:            "BTC/USD",
	BaseCurrency:    "BTC",
	CounterCurrency: "USD",
}

var defaultStartPrice = decimal.NewFromInt(25000)

// Request 一次回测的输入
type Request struct {
	Scenario string
	// 不为空时直接回放该序列（例如 CSV 历史数据），忽略 Scenario 的生成器
	Series     []decimal.Decimal
	Strategy   string
	Items      strategy.ConfigItems
	Samples    int
	StartPrice decimal.Decimal
	Market     exchange.Market
	Options    exchange.SimulatorOptions
	// 额外的流水输出，例如实时推送
	Sink        transaction.Sink
	WithRecords bool

	// 构造模拟器后、第一轮之前调用，测试用于注入故障
	Prepare func(sim *exchange.MarketSimulator)
}

func (r Request) withDefaults() Request {
	if r.Strategy == "" {
		r.Strategy = strategy.MultiOrderName
	}
	if r.Market.ID == "" {
		r.Market = DefaultMarket
	}
	if !r.StartPrice.IsPositive() {
		r.StartPrice = defaultStartPrice
	}
	r.Options = optionsWithDefaults(r.Options)
	if r.Samples <= 0 {
		if len(r.Series) > 0 {
			r.Samples = len(r.Series)
		} else {
			r.Samples = consts.DefaultBacktestSamples
		}
	}
	if len(r.Series) > 0 && r.Scenario == "" {
		r.Scenario = CSVScenario
	}
	return r
}

// optionsWithDefaults 逐项填充未设置的模拟器参数，调用方给出的值保持不变
// 初始资金两项都为零时才视为未设置，允许只持有一种币
func optionsWithDefaults(o exchange.SimulatorOptions) exchange.SimulatorOptions {
	d := exchange.DefaultSimulatorOptions()
	if !o.Spread.IsPositive() {
		o.Spread = d.Spread
	}
	if o.InitialBase.IsZero() && o.InitialCounter.IsZero() {
		o.InitialBase = d.InitialBase
		o.InitialCounter = d.InitialCounter
	}
	if o.Start.IsZero() {
		o.Start = d.Start
	}
	if o.CycleInterval <= 0 {
		o.CycleInterval = d.CycleInterval
	}
	return o
}

// simClock 记录时间跟随模拟器的虚拟时钟
type simClock struct {
	sim *exchange.MarketSimulator
}

func (c simClock) Now() time.Time {
	return c.sim.Now()
}

var _ utils.Clock = simClock{}

// Run 在全新的模拟器和策略实例上执行 Samples 轮交易
// 第一轮使用第 0 个采样点，之后每轮前推进一个采样点；策略返回致命错误时停止并写入报告
func Run(ctx context.Context, req Request) (*model.BacktestReport, error) {
	req = req.withDefaults()

	series := req.Series
	if len(series) == 0 {
		var err error
		series, err = Series(req.Scenario, req.Samples, req.StartPrice)
		if err != nil {
			return nil, err
		}
	}
	if req.Samples > len(series) {
		return nil, fmt.Errorf("samples %d exceed series length %d", req.Samples, len(series))
	}
	series = series[:req.Samples]

	sim, err := exchange.NewMarketSimulator(req.Market, series, req.Options)
	if err != nil {
		return nil, err
	}
	store := transaction.NewMemoryStore()
	deps := strategy.Deps{
		Market: exchange.NewTradingContext(sim, req.Market),
		Sink:   transaction.NewFanout(store, req.Sink),
		Clock:  simClock{sim: sim},
	}
	strat, err := strategy.New(req.Strategy, deps, req.Items)
	if err != nil {
		return nil, err
	}
	if req.Prepare != nil {
		req.Prepare(sim)
	}

	report := &model.BacktestReport{
		RunID:        uuid.NewString(),
		Scenario:     req.Scenario,
		Strategy:     strat.ID(),
		Market:       req.Market.Name,
		Samples:      req.Samples,
		InitialValue: sim.PortfolioValue(),
		Items:        req.Items,
		StartedAt:    time.Now(),
	}
	inspector, _ := strat.(strategy.StackInspector)

	logger.Infof("[backtest %s] %s on %s, %d samples", report.RunID, report.Strategy, report.Scenario, req.Samples)
	for i := 0; i < req.Samples; i++ {
		if err := ctx.Err(); err != nil {
			report.Error = err.Error()
			break
		}
		if i > 0 {
			sim.Advance()
		}
		report.Cycles++
		if err := strat.Execute(ctx); err != nil {
			report.Error = err.Error()
			if !strategy.IsFatal(err) {
				logger.Warnf("[backtest %s] unexpected non-fatal error: %v", report.RunID, err)
			}
			logger.Errorf("[backtest %s] stopped at cycle %d: %v", report.RunID, report.Cycles, err)
			break
		}
		if inspector != nil {
			buys, sells := inspector.Depths()
			report.MaxBuyDepth = max(report.MaxBuyDepth, buys)
			report.MaxSellDepth = max(report.MaxSellDepth, sells)
		}
	}

	if err := summarize(ctx, report, req.Market, sim, store, req.WithRecords); err != nil {
		return nil, err
	}
	report.Stats = seriesStats(series[:sim.Cursor()+1])
	report.FinishedAt = time.Now()
	logger.Infof("[backtest %s] done: cycles=%d initial=%s final=%s",
		report.RunID, report.Cycles, report.InitialValue, report.FinalValue)
	return report, nil
}

func summarize(ctx context.Context, report *model.BacktestReport, market exchange.Market, sim *exchange.MarketSimulator, store *transaction.MemoryStore, withRecords bool) error {
	balances, err := sim.Balances(ctx)
	if err != nil {
		return err
	}
	report.BaseBalance = balances[market.BaseCurrency]
	report.CounterBalance = balances[market.CounterCurrency]
	report.LastPrice = sim.CurrentPrice()
	report.FinalValue = sim.PortfolioValue()

	records, err := store.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		switch {
		case r.Side == model.Buy && r.Status == model.StatusSent:
			report.BuysSent++
		case r.Side == model.Buy && r.Status == model.StatusFilled:
			report.BuysFilled++
		case r.Side == model.Sell && r.Status == model.StatusSent:
			report.SellsSent++
		case r.Side == model.Sell && r.Status == model.StatusFilled:
			report.SellsFilled++
		}
	}
	if withRecords {
		report.Records = records
	}
	return nil
}

// seriesStats 已回放部分的最高、最低、均值和标准差
func seriesStats(series []decimal.Decimal) model.SeriesStats {
	closes := make([]float64, len(series))
	for i, p := range series {
		closes[i] = p.InexactFloat64()
	}
	n := len(closes)
	switch n {
	case 0:
		return model.SeriesStats{}
	case 1:
		return model.SeriesStats{High: closes[0], Low: closes[0], Mean: closes[0]}
	}
	return model.SeriesStats{
		High:   talib.Max(closes, n)[n-1],
		Low:    talib.Min(closes, n)[n-1],
		Mean:   talib.Sma(closes, n)[n-1],
		StdDev: talib.StdDev(closes, n, 1)[n-1],
	}
}

// IsUnknownScenario 场景名不存在
func IsUnknownScenario(err error) bool {
	return errors.Is(err, ErrUnknownScenario)
}
