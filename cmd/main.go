package main

import (
	"log"
	"os"
	api "scalpbot/cmd/scalpbot"
	"scalpbot/conf"
	"scalpbot/internal/dao"
	"scalpbot/internal/middleware"
	"scalpbot/pkg/db"
	"scalpbot/pkg/logger"

	"gorm.io/gorm"
)

// 启动回测和流水查询服务

/*
测试

curl -X POST http://localhost:12180/api/v1/backtest/run \
  -H "Content-Type: application/json" \
  -d '{"scenario":"random-walk","samples":500,"items":{"percent-change-threshold":"2"}}'

curl http://localhost:12180/api/v1/transactions?side=sell&limit=20
*/

func main() {
	// 加载配置文件
	path := "conf/config.yaml"
	if p := os.Getenv("SCALPBOT_CONFIG"); p != "" {
		path = p
	}
	if err := conf.LoadConfig(path); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appCfg := conf.AppConfig
	logger.InitLogger(&appCfg.Log, appCfg.AppName)
	defer logger.Sync()

	var datasource *gorm.DB
	if appCfg.Db.Enabled {
		dbUser := os.Getenv("DB_USER")
		dbPass := os.Getenv("DB_PASSWORD")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		dbName := os.Getenv("DB_NAME")
		if dbUser == "" || dbPass == "" || dbHost == "" {
			dbUser = appCfg.Username
			dbPass = appCfg.Db.Password
			dbHost = appCfg.Host
			dbPort = appCfg.Port
			dbName = appCfg.DbName
		}
		var err error
		datasource, err = db.Init(db.NewConfig(dbUser, dbPass, dbHost, dbPort, dbName))
		if err != nil {
			logger.Fatalf("init database failed: %v", err)
		}
		if err := dao.Migrate(datasource); err != nil {
			logger.Fatalf("migrate database failed: %v", err)
		}
	}

	app, err := api.InitApp(&appCfg, datasource)
	if err != nil {
		logger.Fatalf("init app failed: %v", err)
	}

	// 创建并启动服务
	srv := api.NewServer(&appCfg)
	srv.RegisterOnShutdown(func() {
		if err := app.Close(); err != nil {
			logger.Errorf("close app: %v", err)
		}
		if datasource != nil {
			// 关闭主库链接
			if err := db.Close(); err != nil {
				logger.Errorf("close database: %v", err)
			}
		}
	})

	srv.Run(middleware.NewMiddleware(), app.Router)
}
