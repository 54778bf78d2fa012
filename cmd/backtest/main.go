package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"scalpbot/conf"
	"scalpbot/internal/backtest"
	"scalpbot/internal/model"
	"scalpbot/internal/service"
	"scalpbot/internal/strategy"
	"scalpbot/pkg/logger"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// 命令行回测
//
//	go run ./cmd/backtest -scenario flat -strategy multi-order-scalp -samples 300
//	go run ./cmd/backtest -all -set percent-change-threshold=2
//	go run ./cmd/backtest -csv data/btc_1m.csv -json

type itemFlags map[string]string

func (f itemFlags) String() string {
	return fmt.Sprint(map[string]string(f))
}

func (f itemFlags) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || k == "" {
		return fmt.Errorf("expect key=value, got %q", v)
	}
	f[k] = val
	return nil
}

var (
	configPath = flag.String("config", "conf/config.yaml", "config file")
	scenario   = flag.String("scenario", "flat", "price scenario, see -list")
	strat      = flag.String("strategy", "", "strategy name, defaults to the configured one")
	samples    = flag.Int("samples", 0, "number of trade cycles, defaults to the configured value")
	all        = flag.Bool("all", false, "run every scenario")
	csvPath    = flag.String("csv", "", "replay historical prices from a csv file")
	crossing   = flag.Bool("crossing", false, "fill orders only when the price crosses the limit")
	records    = flag.Bool("records", false, "include transaction records in json output")
	asJSON     = flag.Bool("json", false, "print reports as json")
	list       = flag.Bool("list", false, "list scenarios and strategies")
	items      = itemFlags{}
)

func main() {
	flag.Var(items, "set", "override a strategy config item, key=value (repeatable)")
	flag.Parse()

	if *list {
		printCatalog()
		return
	}

	if err := conf.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg := conf.AppConfig
	// 终端输出报告，日志只写文件
	cfg.Log.Console = false
	logger.InitLogger(&cfg.Log, cfg.AppName+"-backtest")
	defer logger.Sync()

	defaults, err := service.BacktestDefaultsFromConfig(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reqs, err := buildRequests(defaults)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var reports []*model.BacktestReport
	failed := false
	for _, req := range reqs {
		report, err := backtest.Run(ctx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", req.Scenario, err)
			failed = true
			continue
		}
		if report.Error != "" {
			failed = true
		}
		reports = append(reports, report)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		printTable(reports)
	}
	if failed {
		os.Exit(1)
	}
}

func buildRequests(d service.BacktestDefaults) ([]backtest.Request, error) {
	merged := make(strategy.ConfigItems, len(d.Items)+len(items))
	for k, v := range d.Items {
		merged[k] = v
	}
	for k, v := range items {
		merged[k] = v
	}
	name := *strat
	if name == "" {
		name = d.Strategy
	}
	n := *samples
	if n <= 0 {
		n = d.Samples
	}
	opts := d.Options
	opts.CrossingFills = opts.CrossingFills || *crossing

	base := backtest.Request{
		Strategy:    name,
		Items:       merged,
		Samples:     n,
		StartPrice:  d.StartPrice,
		Market:      d.Market,
		Options:     opts,
		WithRecords: *records,
	}

	if *csvPath != "" {
		series, err := backtest.LoadCSVFile(*csvPath)
		if err != nil {
			return nil, err
		}
		base.Series = series
		base.Scenario = backtest.CSVScenario
		// 未显式指定时回放整条序列
		if *samples <= 0 || *samples > len(series) {
			base.Samples = len(series)
		}
		return []backtest.Request{base}, nil
	}

	names := []string{*scenario}
	if *all {
		names = backtest.ScenarioNames()
	}
	reqs := make([]backtest.Request, 0, len(names))
	for _, sc := range names {
		r := base
		r.Scenario = sc
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func printCatalog() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tDESCRIPTION")
	for _, sc := range backtest.Scenarios() {
		fmt.Fprintf(w, "%s\t%s\n", sc.Name, sc.Description)
	}
	_ = w.Flush()
	fmt.Println()
	fmt.Println("strategies:", strings.Join(strategy.Names(), ", "))
}

func printTable(reports []*model.BacktestReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "scenario\tcycles\tbuys\tsells\tmax sells\tinitial\tfinal\tprofit\terror\t")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%d/%d\t%d/%d\t%d\t%s\t%s\t%s\t%s\t\n",
			r.Scenario, r.Cycles,
			r.BuysFilled, r.BuysSent,
			r.SellsFilled, r.SellsSent,
			r.MaxSellDepth,
			r.InitialValue.StringFixed(2), r.FinalValue.StringFixed(2), r.Profit().StringFixed(2),
			r.Error)
	}
	_ = w.Flush()
}
