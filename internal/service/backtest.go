package service

import (
	"context"
	"errors"
	"fmt"
	"scalpbot/conf"
	"scalpbot/internal/backtest"
	"scalpbot/internal/consts"
	"scalpbot/internal/dao"
	"scalpbot/internal/exchange"
	"scalpbot/internal/model"
	"scalpbot/internal/model/entity"
	"scalpbot/internal/strategy"
	"scalpbot/internal/transaction"
	"scalpbot/pkg/logger"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrReportNotFound = errors.New("backtest report not found")

// 未启用数据库时内存中保留的报告数量
const recentReports = 200

// BacktestDefaults 请求中未指定的回测参数
type BacktestDefaults struct {
	Strategy   string
	Items      strategy.ConfigItems
	Market     exchange.Market
	Samples    int
	StartPrice decimal.Decimal
	Options    exchange.SimulatorOptions
}

// BacktestDefaultsFromConfig 把配置文件中的字符串参数解析为十进制
func BacktestDefaultsFromConfig(cfg *conf.Config) (BacktestDefaults, error) {
	items, err := strategy.ItemsFromAny(cfg.Strategy.Items)
	if err != nil {
		return BacktestDefaults{}, err
	}
	opts := exchange.DefaultSimulatorOptions()
	bt := cfg.Backtest
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{bt.Spread, &opts.Spread},
		{bt.InitialBase, &opts.InitialBase},
		{bt.InitialCounter, &opts.InitialCounter},
	} {
		if f.raw == "" {
			continue
		}
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return BacktestDefaults{}, fmt.Errorf("backtest config %q: %w", f.raw, err)
		}
	}
	opts.CrossingFills = bt.CrossingFills
	if bt.CycleInterval > 0 {
		opts.CycleInterval = bt.CycleInterval
	}

	samples := bt.Samples
	if samples <= 0 {
		samples = consts.DefaultBacktestSamples
	}
	return BacktestDefaults{
		Strategy: cfg.Strategy.Name,
		Items:    items,
		Market: exchange.Market{
			ID:              cfg.Market.ID,
			Name:            cfg.Market.Name,
			BaseCurrency:    cfg.Market.BaseCurrency,
			CounterCurrency: cfg.Market.CounterCurrency,
		},
		Samples:    samples,
		StartPrice: decimal.NewFromFloat(bt.StartPrice),
		Options:    opts,
	}, nil
}

// BacktestService 执行回测并保存报告
// dao 为 nil 时报告只保存在内存 LRU 中，重启后丢失
type BacktestService struct {
	dao      *dao.BacktestDao
	defaults BacktestDefaults
	feed     transaction.Sink
	recent   *lru.Cache
}

func NewBacktestService(d *dao.BacktestDao, defaults BacktestDefaults, feed transaction.Sink) *BacktestService {
	recent, _ := lru.New(recentReports)
	return &BacktestService{
		dao:      d,
		defaults: defaults,
		feed:     feed,
		recent:   recent,
	}
}

func (s *BacktestService) Scenarios() []backtest.Scenario {
	return backtest.Scenarios()
}

func (s *BacktestService) Strategies() []string {
	return strategy.Names()
}

// Run 请求中的配置项覆盖默认配置项
func (s *BacktestService) Run(ctx context.Context, req model.BacktestReq) (*model.BacktestReport, error) {
	items := make(strategy.ConfigItems, len(s.defaults.Items)+len(req.Items))
	for k, v := range s.defaults.Items {
		items[k] = v
	}
	for k, v := range req.Items {
		items[k] = v
	}
	name := req.Strategy
	if name == "" {
		name = s.defaults.Strategy
	}
	samples := req.Samples
	if samples <= 0 {
		samples = s.defaults.Samples
	}
	opts := s.defaults.Options
	opts.CrossingFills = opts.CrossingFills || req.CrossingFills

	report, err := backtest.Run(ctx, backtest.Request{
		Scenario:    req.Scenario,
		Strategy:    name,
		Items:       items,
		Samples:     samples,
		StartPrice:  s.defaults.StartPrice,
		Market:      s.defaults.Market,
		Options:     opts,
		Sink:        s.feed,
		WithRecords: req.WithRecords,
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, report); err != nil {
		logger.Errorf("save backtest report %s failed: %v", report.RunID, err)
	}
	return report, nil
}

// save 保存不含流水明细的报告
func (s *BacktestService) save(ctx context.Context, report *model.BacktestReport) error {
	summary := *report
	summary.Records = nil
	if s.dao == nil {
		s.recent.Add(summary.RunID, &summary)
		return nil
	}
	raw, err := json.Marshal(&summary)
	if err != nil {
		return err
	}
	cfg := make(datatypes.JSONMap, len(summary.Items))
	for k, v := range summary.Items {
		cfg[k] = v
	}
	return s.dao.BacktestCreateNew(ctx, &entity.BacktestReport{
		RunID:        summary.RunID,
		Scenario:     summary.Scenario,
		Strategy:     summary.Strategy,
		Market:       summary.Market,
		Samples:      summary.Samples,
		Cycles:       summary.Cycles,
		InitialValue: summary.InitialValue,
		FinalValue:   summary.FinalValue,
		MaxSellDepth: summary.MaxSellDepth,
		Config:       cfg,
		Summary:      datatypes.JSON(raw),
		Error:        summary.Error,
	})
}

func (s *BacktestService) Get(ctx context.Context, runID string) (*model.BacktestReport, error) {
	if s.dao == nil {
		v, ok := s.recent.Get(runID)
		if !ok {
			return nil, ErrReportNotFound
		}
		return v.(*model.BacktestReport), nil
	}
	row, err := s.dao.BacktestGetByRunID(ctx, runID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeReport(row)
}

// List 最新的报告在前
func (s *BacktestService) List(ctx context.Context, page, limit int) ([]*model.BacktestReport, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if s.dao == nil {
		keys := s.recent.Keys()
		total := int64(len(keys))
		list := make([]*model.BacktestReport, 0, limit)
		// Keys 从旧到新
		for i := len(keys) - 1 - (page-1)*limit; i >= 0 && len(list) < limit; i-- {
			if v, ok := s.recent.Peek(keys[i]); ok {
				list = append(list, v.(*model.BacktestReport))
			}
		}
		return list, total, nil
	}
	rows, total, err := s.dao.BacktestGetList(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	list := make([]*model.BacktestReport, 0, len(rows))
	for _, row := range rows {
		r, err := decodeReport(row)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, r)
	}
	return list, total, nil
}

func (s *BacktestService) Delete(ctx context.Context, runID string) error {
	if s.dao == nil {
		if !s.recent.Remove(runID) {
			return ErrReportNotFound
		}
		return nil
	}
	n, err := s.dao.BacktestDeleteByRunID(ctx, runID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReportNotFound
	}
	return nil
}

func decodeReport(row entity.BacktestReport) (*model.BacktestReport, error) {
	var r model.BacktestReport
	if err := json.Unmarshal(row.Summary, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", row.RunID, err)
	}
	return &r, nil
}

// IsBadRequest 参数类错误，返回给调用方修正
func IsBadRequest(err error) bool {
	return backtest.IsUnknownScenario(err) ||
		errors.Is(err, strategy.ErrInvalidConfig) ||
		errors.Is(err, strategy.ErrStrategyNotFound)
}
