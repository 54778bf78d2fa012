package exchange

import "errors"

var (
	// 网络超时，订单可能已到达交易所也可能没有，本轮放弃
	ErrNetworkTimeout = errors.New("exchange network timeout")
	// 交易所拒绝请求或返回无法解析的数据，不可重试
	ErrApiFault = errors.New("exchange api fault")
	// 盘口一侧为空
	ErrNoLiquidity = errors.New("no liquidity on one side of the order book")
	// 模拟价格序列已用完
	ErrIndexOutOfRange = errors.New("simulated price series exhausted")
	ErrOrderNotFound   = errors.New("order not found")
)

// IsTransient 可以放弃本轮、下轮重试的错误
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetworkTimeout) || errors.Is(err, ErrNoLiquidity)
}
