package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/kingbirdogd/matching-sample/internal/app/engine"
	"github.com/kingbirdogd/matching-sample/internal/usecase/exchange"
	orderreader "github.com/kingbirdogd/matching-sample/internal/usecase/order-reader"
	"github.com/kingbirdogd/matching-sample/internal/usecase/snapshot"
	tradepublisher "github.com/kingbirdogd/matching-sample/internal/usecase/trade-publisher"
	"github.com/kingbirdogd/matching-sample/pkg/config"
	"github.com/kingbirdogd/matching-sample/pkg/logger"
	"github.com/kingbirdogd/matching-sample/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	config.MustLoad(cfg)

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := redis.DefaultConfig()
	redisConfig.Addrs = []string{cfg.RedisConfig.Addrs}
	redisConfig.Password = cfg.RedisConfig.Password
	redisConfig.Username = cfg.RedisConfig.Username
	redisConfig.DB = cfg.RedisConfig.DB

	rclient := redis.NewClient(log, redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	// Initialize components
	ex := exchange.NewExchange()
	oReader := orderreader.NewReader(cfg.KafkaConfig, log)
	tPublisher := tradepublisher.NewPublisher(cfg.TradePublisherConfig, log)
	snapshotStore := snapshot.NewSnapshotStore(rclient, cfg.SnapshotKey, log)

	engine := app.NewEngine(
		ex,
		oReader,
		tPublisher,
		snapshotStore,
		log,
	)

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("Matching engine started successfully", logger.Field{
		Key:   "orderTopic",
		Value: cfg.KafkaConfig.Topic,
	})

	// Wait for shutdown signal
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

	if err := rclient.Disconnect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("Matching engine shutdown complete")
}
