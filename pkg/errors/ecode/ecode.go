package ecode

// 业务错误码
const (
	Success         = 0
	Unknown         = 10000
	ValidateErr     = 10001
	NotFoundErr     = 10002
	RequireAuthErr  = 10003
	TooManyRequests = 10004

	// 回测相关
	BacktestErr = 20001
)

var text = map[int]string{
	Success:         "ok",
	Unknown:         "unknown error",
	ValidateErr:     "validate error",
	NotFoundErr:     "not found",
	RequireAuthErr:  "require auth",
	TooManyRequests: "too many requests",
	BacktestErr:     "backtest failed",
}

func Text(code int) string {
	return text[code]
}
