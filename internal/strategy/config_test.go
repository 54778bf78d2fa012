package strategy

import (
	"errors"
	"scalpbot/internal/consts"
	"strings"
	"testing"
)

func TestParseMultiOrderConfig(t *testing.T) {
	cfg, err := ParseMultiOrderConfig(ConfigItems{
		KeyBuyOrderAmount:          "50",
		KeyPercentChangeThreshold:  "4",
		KeyMaxConcurrentSellOrders: "3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.BuyOrderAmount.Equal(dec("50")) || !cfg.PercentChangeThreshold.Equal(dec("0.04")) || cfg.MaxConcurrentSellOrders != 3 {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg, err = ParseMultiOrderConfig(ConfigItems{
		KeyBuyOrderAmount:         "20",
		KeyPercentChangeThreshold: "0.5",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConcurrentSellOrders != consts.DefaultMaxConcurrentSellOrders {
		t.Errorf("default max = %d", cfg.MaxConcurrentSellOrders)
	}
	if !cfg.PercentChangeThreshold.Equal(dec("0.005")) {
		t.Errorf("threshold = %s", cfg.PercentChangeThreshold)
	}
}

func TestParseMultiOrderConfig_ReportsEveryBadKey(t *testing.T) {
	_, err := ParseMultiOrderConfig(ConfigItems{
		KeyPercentChangeThreshold:  "four",
		KeyMaxConcurrentSellOrders: "0",
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	for _, key := range []string{KeyBuyOrderAmount, KeyPercentChangeThreshold, KeyMaxConcurrentSellOrders} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should mention %s: %v", key, err)
		}
	}

	for _, pct := range []string{"0", "-1", "100", "250"} {
		_, err := ParseMultiOrderConfig(ConfigItems{KeyBuyOrderAmount: "50", KeyPercentChangeThreshold: pct})
		if err == nil {
			t.Errorf("threshold %s%% should be rejected", pct)
		}
	}
	if _, err := ParseMultiOrderConfig(ConfigItems{KeyBuyOrderAmount: "-5", KeyPercentChangeThreshold: "4"}); err == nil {
		t.Error("negative budget should be rejected")
	}
}

func TestParseSingleOrderConfig(t *testing.T) {
	cfg, err := ParseSingleOrderConfig(ConfigItems{
		KeyBuyOrderAmount:        "20",
		KeyMinimumPercentageGain: "2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.MinimumPercentageGain.Equal(dec("0.02")) {
		t.Errorf("gain = %s", cfg.MinimumPercentageGain)
	}
	if _, err := ParseSingleOrderConfig(ConfigItems{KeyBuyOrderAmount: "20"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("missing gain should fail, got %v", err)
	}
}

func TestItemsFromAny(t *testing.T) {
	items, err := ItemsFromAny(map[string]any{
		KeyBuyOrderAmount:          "50",
		KeyPercentChangeThreshold:  4,
		KeyMaxConcurrentSellOrders: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if items[KeyPercentChangeThreshold] != "4" || items[KeyMaxConcurrentSellOrders] != "5" {
		t.Errorf("items = %v", items)
	}
	if keys := items.Keys(); len(keys) != 3 || keys[0] != KeyBuyOrderAmount {
		t.Errorf("keys = %v", keys)
	}
}
