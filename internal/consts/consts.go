package consts

// RequestId 请求id名称
const RequestId = "request_id"

// 金额和数量统一保留 8 位小数
const AmountScale = 8

// 未配置时的默认参数
const (
	DefaultMaxConcurrentSellOrders = 5
	DefaultBacktestSamples         = 300
	DefaultKafkaGroup              = "scalpbot-audit"
)
