package backtest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// 随机游走的固定种子，保证每次生成的序列一致
const randomWalkSeed = 20240101

// 价格下限，避免递减序列跌到 0（0 会被模拟器视为无流动性）
const priceFloorRatio = 0.01

type generator func(n int, start float64) []float64

// Scenario 一条可复现的价格路径
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	gen         generator
}

var scenarios = map[string]Scenario{}

func register(name, desc string, gen generator) {
	scenarios[name] = Scenario{Name: name, Description: desc, gen: gen}
}

func init() {
	register("flat", "constant mid price", func(n int, start float64) []float64 {
		return fill(n, func(i int) float64 { return start })
	})
	register("linear-increasing", "mid rises by 0.1% of the start price per sample", func(n int, start float64) []float64 {
		return fill(n, func(i int) float64 { return start * (1 + 0.001*float64(i)) })
	})
	register("linear-decreasing", "mid falls by 0.1% of the start price per sample", func(n int, start float64) []float64 {
		return fill(n, func(i int) float64 { return floor(start*(1-0.001*float64(i)), start) })
	})
	register("exponential-increasing", "mid compounds +0.3% per sample", func(n int, start float64) []float64 {
		return fill(n, func(i int) float64 { return start * math.Pow(1.003, float64(i)) })
	})
	register("exponential-decreasing", "mid compounds -0.3% per sample", func(n int, start float64) []float64 {
		return fill(n, func(i int) float64 { return floor(start*math.Pow(0.997, float64(i)), start) })
	})
	register("volatile-increasing", "linear uptrend with a 6% sine swing", func(n int, start float64) []float64 {
		return fill(n, func(i int) float64 {
			return start * (1 + 0.001*float64(i)) * (1 + 0.06*math.Sin(float64(i)*math.Pi/8))
		})
	})
	register("volatile-decreasing", "linear downtrend with a 6% sine swing", func(n int, start float64) []float64 {
		return fill(n, func(i int) float64 {
			return floor(start*(1-0.001*float64(i))*(1+0.06*math.Sin(float64(i)*math.Pi/8)), start)
		})
	})
	register("random-walk", "seeded gaussian random walk, 1% step", func(n int, start float64) []float64 {
		r := rand.New(rand.NewSource(randomWalkSeed))
		p := start
		return fill(n, func(i int) float64 {
			if i > 0 {
				p = floor(p*(1+0.01*r.NormFloat64()), start)
			}
			return p
		})
	})
	register("exponential-increase-with-crash", "exponential rise, 60% crash at 80% of the run", func(n int, start float64) []float64 {
		crashAt := n * 4 / 5
		return fill(n, func(i int) float64 {
			if i < crashAt {
				return start * math.Pow(1.003, float64(i))
			}
			peak := start * math.Pow(1.003, float64(crashAt))
			return floor(peak*0.4*math.Pow(0.999, float64(i-crashAt)), start)
		})
	})
	register("exponential-increasing-with-crashes", "exponential rise with a 25% crash every quarter", func(n int, start float64) []float64 {
		period := n / 4
		if period < 1 {
			period = 1
		}
		return fill(n, func(i int) float64 {
			crashes := i / period
			return start * math.Pow(1.004, float64(i)) * math.Pow(0.75, float64(crashes))
		})
	})
}

func fill(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func floor(v, start float64) float64 {
	return math.Max(v, start*priceFloorRatio)
}

// Scenarios 按名称排序
func Scenarios() []Scenario {
	list := make([]Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Series 生成指定场景的中间价序列，保留 8 位小数
func Series(name string, samples int, start decimal.Decimal) ([]decimal.Decimal, error) {
	sc, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	if samples < 1 {
		return nil, fmt.Errorf("samples must be positive, got %d", samples)
	}
	if !start.IsPositive() {
		return nil, fmt.Errorf("start price must be positive, got %s", start)
	}
	raw := sc.gen(samples, start.InexactFloat64())
	series := make([]decimal.Decimal, len(raw))
	for i, v := range raw {
		series[i] = decimal.NewFromFloat(v).Round(8)
	}
	return series, nil
}

// LoadCSV 读取历史价格，表头含 price/close/mid 列时取该列，否则取最后一列
// 无法解析的首行视为表头
func LoadCSV(r io.Reader) ([]decimal.Decimal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var (
		series []decimal.Decimal
		col    = -1
		line   int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(row) == 0 {
			continue
		}
		idx := col
		if idx < 0 || idx >= len(row) {
			idx = len(row) - 1
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row[idx]))
		if err != nil {
			if line == 1 {
				col = priceColumn(row)
				continue
			}
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("csv line %d: price %s must be positive", line, price)
		}
		series = append(series, price.Round(8))
	}
	if len(series) == 0 {
		return nil, errors.New("csv contains no prices")
	}
	return series, nil
}

func LoadCSVFile(path string) ([]decimal.Decimal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCSV(f)
}

func priceColumn(header []string) int {
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "price", "close", "mid":
			return i
		}
	}
	return -1
}
