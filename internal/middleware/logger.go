package middleware

import (
	"bytes"
	"io"
	"scalpbot/internal/consts"
	"scalpbot/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
)

// 请求体超过该长度时日志中截断
const maxLoggedBody = 2048

func Logger(c *gin.Context) {
	t := time.Now()
	reqPath := c.Request.URL.Path
	reqId := c.GetString(consts.RequestId)
	ip := c.ClientIP()

	var requestBody []byte
	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err == nil {
			requestBody = body
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
	}
	if len(requestBody) > maxLoggedBody {
		requestBody = requestBody[:maxLoggedBody]
	}

	logger.Info("[Request Start]",
		logger.Pair(consts.RequestId, reqId),
		logger.Pair("host", ip),
		logger.Pair("path", reqPath),
		logger.Pair("method", c.Request.Method),
		logger.Pair("body", string(requestBody)))

	c.Next()

	logger.Info("[Request End]",
		logger.Pair(consts.RequestId, reqId),
		logger.Pair("path", reqPath),
		logger.Pair("status", c.Writer.Status()),
		logger.Pair("cost", time.Since(t)))
}
