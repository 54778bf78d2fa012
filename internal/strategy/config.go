package strategy

import (
	"fmt"
	"scalpbot/internal/consts"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
)

// 配置项名称
const (
	KeyBuyOrderAmount          = "counter-currency-buy-order-amount"
	KeyPercentChangeThreshold  = "percent-change-threshold"
	KeyMaxConcurrentSellOrders = "max-concurrent-sell-orders"
	KeyMinimumPercentageGain   = "minimum-percentage-gain"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ConfigItems 策略原始配置，值为十进制字符串
type ConfigItems map[string]string

// ItemsFromAny 把 yaml 解析出的任意类型值转换为字符串
func ItemsFromAny(m map[string]any) (ConfigItems, error) {
	items, err := cast.ToStringMapStringE(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return items, nil
}

// Keys 按字母排序的配置项名称
func (c ConfigItems) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MultiOrderConfig 多单策略参数
type MultiOrderConfig struct {
	// 每次买入花费的计价货币数量
	BuyOrderAmount decimal.Decimal
	// 0~1 之间的比例，配置中以百分数填写
	PercentChangeThreshold  decimal.Decimal
	MaxConcurrentSellOrders int
}

// ParseMultiOrderConfig 一次性报告所有非法配置项
func ParseMultiOrderConfig(items ConfigItems) (MultiOrderConfig, error) {
	var cfg MultiOrderConfig
	var errs, err error

	if cfg.BuyOrderAmount, err = requiredAmount(items, KeyBuyOrderAmount); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.PercentChangeThreshold, err = requiredPercent(items, KeyPercentChangeThreshold); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.MaxConcurrentSellOrders, err = optionalCount(items, KeyMaxConcurrentSellOrders, consts.DefaultMaxConcurrentSellOrders); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return MultiOrderConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	return cfg, nil
}

// SingleOrderConfig 单单策略参数
type SingleOrderConfig struct {
	BuyOrderAmount        decimal.Decimal
	MinimumPercentageGain decimal.Decimal
}

func ParseSingleOrderConfig(items ConfigItems) (SingleOrderConfig, error) {
	var cfg SingleOrderConfig
	var errs, err error

	if cfg.BuyOrderAmount, err = requiredAmount(items, KeyBuyOrderAmount); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.MinimumPercentageGain, err = requiredPercent(items, KeyMinimumPercentageGain); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return SingleOrderConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	return cfg, nil
}

func requiredDecimal(items ConfigItems, key string) (decimal.Decimal, error) {
	raw, ok := items[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be numeric, got %q", key, raw)
	}
	return d, nil
}

func requiredAmount(items ConfigItems, key string) (decimal.Decimal, error) {
	d, err := requiredDecimal(items, key)
	if err != nil {
		return d, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

// requiredPercent "4" 表示 4%，转换为 0.04，保留 8 位
func requiredPercent(items ConfigItems, key string) (decimal.Decimal, error) {
	d, err := requiredDecimal(items, key)
	if err != nil {
		return d, err
	}
	frac := d.DivRound(hundred, consts.AmountScale)
	if !frac.IsPositive() || !frac.LessThan(one) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 100 percent, got %s", key, d)
	}
	return frac, nil
}

func optionalCount(items ConfigItems, key string, def int) (int, error) {
	raw, ok := items[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := cast.ToIntE(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be at least 1, got %d", key, n)
	}
	return n, nil
}
