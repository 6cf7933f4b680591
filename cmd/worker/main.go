package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfg "github.com/clearhaul/docvalidator/config"
	"github.com/clearhaul/docvalidator/internal/notify"
	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/storage"
	"github.com/clearhaul/docvalidator/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	engineCfg := cfg.GetEngineConfig()
	redisCfg := cfg.GetRedisConfig()

	dispatcher := notify.NewWebhookDispatcher(engineCfg.NotifyWebhookURL, log)

	workerCfg := &worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	}

	notificationWorker, err := worker.NewNotificationWorker(workerCfg, dispatcher, log)
	if err != nil {
		log.Error("Failed to create notification worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := notificationWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	// Expire fetched working copies on a timer.
	go runRetentionLoop(ctx, engineCfg.Retention, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	notificationWorker.Stop()
	log.Info("Worker stopped")
}

func runRetentionLoop(ctx context.Context, retention time.Duration, log logger.Logger) {
	store, err := storage.NewStorage(log)
	if err != nil {
		log.Error("Retention cleanup disabled, storage unavailable", logger.Error(err))
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			threshold := time.Now().Add(-retention)
			if err := store.CleanupBefore(ctx, threshold); err != nil {
				log.Error("Retention cleanup failed", logger.Error(err))
				continue
			}
			log.Info("Retention cleanup completed", logger.Time("threshold", threshold))
		}
	}
}
