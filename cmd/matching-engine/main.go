package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/sm-nvws/limit-order-book/internal/app/engine"
	orderbookv1 "github.com/sm-nvws/limit-order-book/internal/domain/orderbook/v1"
	"github.com/sm-nvws/limit-order-book/internal/usecase/book"
	orderreader "github.com/sm-nvws/limit-order-book/internal/usecase/order-reader"
	snapshot "github.com/sm-nvws/limit-order-book/internal/usecase/snapshot"
	tradepublisher "github.com/sm-nvws/limit-order-book/internal/usecase/trade-publisher"
	"github.com/sm-nvws/limit-order-book/pkg/config"
	"github.com/sm-nvws/limit-order-book/pkg/logger"
	"github.com/sm-nvws/limit-order-book/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := redis.DefaultConfig()
	redisConfig.Addr = cfg.Redis.Addr
	redisConfig.Password = cfg.Redis.Password
	redisConfig.Username = cfg.Redis.Username
	redisConfig.DB = cfg.Redis.DB

	rclient := redis.NewClient(log, redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	b := book.NewBook(book.Config{
		MaxOrderQty:   orderbookv1.Quantity(cfg.Book.MaxOrderQty),
		MaxLevelDepth: cfg.Book.MaxLevelDepth,
		PriceCollar:   orderbookv1.Price(cfg.Book.PriceCollar),
	})
	oReader := orderreader.NewReader(cfg.Kafka, *log)
	tPublisher := tradepublisher.NewPublisher(cfg.TradePublisher, *log)
	snapshotStore := snapshot.NewSnapshotStore(rclient, cfg.Pair, log)

	engine, err := app.NewEngine(
		b,
		oReader,
		tPublisher,
		snapshotStore,
		log,
		cfg,
	)
	if err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "init_engine",
		})
		return
	}

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("Matching engine started successfully", logger.Field{
		Key:   "pair",
		Value: cfg.Pair,
	})

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	if err := tPublisher.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_trade_publisher",
		})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("Matching engine shutdown complete")
}
