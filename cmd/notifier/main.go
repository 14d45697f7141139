package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"community-portal/internal/config"
	"community-portal/internal/env"
	"community-portal/internal/events"
	"community-portal/internal/feedback"
	kafkax "community-portal/internal/kafka"
	"community-portal/internal/notifier"
	"community-portal/internal/postgres"
	"community-portal/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalw("db connect", "error", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Feedback:    &feedback.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-notifier",
		Logger:      logger,
	}

	group := env.GetString("NOTIFIER_GROUP", "portal-notifier")
	workers := env.GetInt("NOTIFIER_WORKERS", 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicOrderStatusChanged, workers)

	go func() {
		logger.Infow("notifier consumer started", "group", group, "topic", events.TopicOrderStatusChanged, "workers", workers)
		if err := cons.Start(ctx, svc.HandleOrderStatusChanged); err != nil {
			logger.Errorw("consumer exit", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
