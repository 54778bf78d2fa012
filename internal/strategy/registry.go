package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrStrategyNotFound = errors.New("strategy not found")

var (
	// 策略注册表， 支持多策略注册
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

func Get(name string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	return f, nil
}

// New 按名称构造策略
func New(name string, deps Deps, items ConfigItems) (TradingStrategy, error) {
	f, err := Get(name)
	if err != nil {
		return nil, err
	}
	return f(deps, items)
}

// Names 已注册的策略名称，按字母排序
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
