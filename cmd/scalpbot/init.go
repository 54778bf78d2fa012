package api

import (
	"context"
	"scalpbot/conf"
	"scalpbot/internal/consts"
	"scalpbot/internal/dao"
	backtestHandler "scalpbot/internal/handler/backtest"
	txHandler "scalpbot/internal/handler/transaction"
	"scalpbot/internal/router"
	"scalpbot/internal/service"
	"scalpbot/internal/transaction"
	"scalpbot/pkg/kafka"
	"scalpbot/pkg/logger"

	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// App 组装好的路由和需要在退出时释放的资源
type App struct {
	Router Router
	cancel context.CancelFunc
	closes []func() error
}

// Close 停止 Kafka 镜像并关闭生产者
func (a *App) Close() error {
	a.cancel()
	var errs error
	for _, f := range a.closes {
		errs = multierr.Append(errs, f())
	}
	return errs
}

// InitApp 组装流水输出链路
//
//	有数据库时流水落库，否则保存在内存；配置了 Kafka 时先写入 Kafka，再由镜像消费者写入存储；
//	另外同时写本地 JSON 文件和 websocket 推送
func InitApp(cfg *conf.Config, db *gorm.DB) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{cancel: cancel}

	var store transaction.Store
	var reportDao *dao.BacktestDao
	if db != nil {
		store = dao.NewTransactionDao(db)
		reportDao = dao.NewBacktestDao(db)
	} else {
		store = transaction.NewMemoryStore()
	}

	var primary transaction.Sink = store
	if cfg.Kafka.Broker != "" {
		producer, err := kafka.NewKafkaProducer(cfg.Kafka.Broker, cfg.Kafka.Topic)
		if err != nil {
			cancel()
			return nil, err
		}
		app.closes = append(app.closes, producer.Close)
		primary = transaction.NewKafkaSink(producer)

		consumer := kafka.NewKafkaConsumer(cfg.Kafka.Broker)
		go func() {
			if err := transaction.Mirror(ctx, consumer, cfg.Kafka.Topic, consts.DefaultKafkaGroup, store); err != nil {
				logger.Errorf("transaction mirror stopped: %v", err)
			}
		}()
	}

	var journal transaction.Sink
	if cfg.Journal.Path != "" {
		journal = transaction.NewJournalSink(cfg.Journal.Path)
	}
	feed := txHandler.NewFeed()
	audit := transaction.NewFanout(primary, journal, feed)

	defaults, err := service.BacktestDefaultsFromConfig(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	bs := service.NewBacktestService(reportDao, defaults, audit)
	ts := service.NewTransactionService(store)

	app.Router = router.NewApiRouter(
		backtestHandler.NewHandler(bs),
		txHandler.NewHandler(ts, feed),
	)
	return app, nil
}
