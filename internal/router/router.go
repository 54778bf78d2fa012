package router

import (
	"scalpbot/internal/handler/backtest"
	"scalpbot/internal/handler/transaction"
	"scalpbot/internal/middleware"
	"time"

	"github.com/gin-gonic/gin"
)

// 同一客户端两次发起回测的最小间隔
const backtestRunInterval = 2 * time.Second

type ApiRouter struct {
	backtestHandler    *backtest.Handler
	transactionHandler *transaction.Handler
}

func NewApiRouter(bh *backtest.Handler, th *transaction.Handler) *ApiRouter {
	return &ApiRouter{backtestHandler: bh, transactionHandler: th}
}

func (api *ApiRouter) Load(g *gin.Engine) {
	base := g.Group("/api/v1")

	b := base.Group("/backtest")
	{
		b.GET("/scenarios", api.backtestHandler.ScenariosGet())
		b.POST("/run", middleware.AntiDuplicate(500, backtestRunInterval), api.backtestHandler.BacktestRun())
		b.GET("/reports", api.backtestHandler.ReportGetList())
		b.GET("/reports/:id", api.backtestHandler.ReportGet())
		b.DELETE("/reports/:id", api.backtestHandler.ReportDelete())
	}

	t := base.Group("/transactions")
	{
		t.GET("", api.transactionHandler.TransactionGetList())
		// 通过websocket连接接收实时流水
		t.GET("/ws", api.transactionHandler.ServeWS)
		t.GET("/:id", api.transactionHandler.TransactionGetByID())
	}
}
