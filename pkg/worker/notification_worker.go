package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clearhaul/docvalidator/internal/notify"
	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/queue"
)

// NotificationWorker consumes entry:notify tasks and hands them to the
// external messaging collaborator. Delivery retries are asynq's job, not
// the orchestrator's.
type NotificationWorker struct {
	BaseWorker
	dispatcher notify.Dispatcher
}

func NewNotificationWorker(cfg *Config, dispatcher notify.Dispatcher, log logger.Logger) (*NotificationWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &NotificationWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		dispatcher: dispatcher,
	}

	w.mux.HandleFunc(queue.TaskTypeEntryNotify, w.handleEntryNotify)
	return w, nil
}

func (w *NotificationWorker) handleEntryNotify(ctx context.Context, t *asynq.Task) error {
	var notification queue.EntryNotification
	if err := json.Unmarshal(t.Payload(), &notification); err != nil {
		w.logger.Error("Failed to unmarshal notification task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.EntryID == "" {
		return fmt.Errorf("invalid notification task: missing entry id")
	}

	w.logger.Info("Dispatching entry notification",
		logger.String("entryId", notification.EntryID),
		logger.Int("documents", len(notification.Outcomes)),
	)

	if err := w.dispatcher.Dispatch(ctx, &notification); err != nil {
		w.logger.Error("Notification dispatch failed",
			logger.String("entryId", notification.EntryID),
			logger.Error(err),
		)
		return err
	}

	return nil
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
