package middleware

import (
	"net/http"
	"scalpbot/internal/consts"
	"scalpbot/pkg/response"
	"scalpbot/utils/uuid"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/gin-gonic/gin"
)

// NoCache 控制客户端不要使用缓存
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, max-age=0, must-revalidate")
		c.Header("Expires", "Thu, 01 Jan 1970 00:00:00 GMT")
		c.Header("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		c.Next()
	}
}

// Options 预检请求直接返回
func Options() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.ToUpper(c.Request.Method) != http.MethodOptions {
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "origin, content-type, accept")
		c.Header("Allow", "HEAD,GET,POST,DELETE,OPTIONS")
		c.Header("Content-Type", "application/json")
		c.AbortWithStatus(http.StatusOK)
	}
}

// Secure 添加安全控制和资源访问
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000")
		}
		c.Next()
	}
}

// RequestId 用来设置和透传requestId
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader("X-Request-Id")
		if requestId == "" {
			requestId = uuid.GenUUID16()
		}
		c.Header("X-Request-Id", requestId)
		c.Set(consts.RequestId, requestId)
		c.Next()
	}
}

// AntiDuplicate 同一 IP 对同一路径在 window 内只放行一次
// 回测比较耗时，用于保护 /backtest/run，不要挂在 websocket 路由上
func AntiDuplicate(size int, window time.Duration) gin.HandlerFunc {
	// lru 本身并发安全，容量满时淘汰最久未访问的 key
	cache, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return func(c *gin.Context) {
		key := c.ClientIP() + c.Request.URL.Path
		if value, ok := cache.Get(key); ok {
			if time.Since(value.(time.Time)) < window {
				response.TooManyRequests(c)
				c.Abort()
				return
			}
		}
		cache.Add(key, time.Now())
		c.Next()
	}
}
