package strategy

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid strategy config")
	// 预算按当前价格换算后数量为 0
	ErrQuantityTooSmall = errors.New("order quantity rounds to zero")
)

// Error 策略级致命错误
type Error struct {
	StrategyID string
	Op         string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("strategy %s: %s: %v", e.StrategyID, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal 调度器收到后应停止调用 Execute
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
