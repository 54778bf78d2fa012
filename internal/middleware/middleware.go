package middleware

import (
	"scalpbot/internal/handler/ping"

	"github.com/gin-gonic/gin"
)

type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// Load 注册全局中间件和健康检查
func (m *Middleware) Load(g *gin.Engine) {
	g.Use(gin.Recovery(), RequestId(), Logger, NoCache(), Options(), Secure())
	g.GET("/ping", ping.Ping())
}
