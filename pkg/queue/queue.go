package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	cfg "github.com/clearhaul/docvalidator/config"
	"github.com/clearhaul/docvalidator/internal/models"
)

// TaskTypeEntryNotify carries an aggregated entry-completion summary to the
// notification worker.
const TaskTypeEntryNotify = "entry:notify"

// EntryNotification is the payload of an entry:notify task.
type EntryNotification struct {
	EntryID     string                   `json:"entryId"`
	Outcomes    []models.DocumentOutcome `json:"outcomes"`
	CompletedAt time.Time                `json:"completedAt"`
}

// Queue is the handoff point between the validation engine and the
// notification worker. The orchestrator enqueues; it never dispatches.
type Queue interface {
	EnqueueEntryNotification(ctx context.Context, n *EntryNotification) error
}

// AsynqQueue implements Queue on asynq over redis.
type AsynqQueue struct {
	client *asynq.Client
}

type Config struct {
	RedisAddr  string
	RedisDB    int
	MaxRetries int
	Timeout    time.Duration
}

// NewAsynqQueue creates a queue client from the redis configuration.
func NewAsynqQueue() *AsynqQueue {
	redisCfg := cfg.GetRedisConfig()
	return NewAsynqQueueWithConfig(&Config{
		RedisAddr:  redisCfg.Addr,
		RedisDB:    redisCfg.DB,
		MaxRetries: 3,
		Timeout:    time.Minute,
	})
}

func NewAsynqQueueWithConfig(c *Config) *AsynqQueue {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: c.RedisAddr,
		DB:   c.RedisDB,
	})
	return &AsynqQueue{client: client}
}

func (q *AsynqQueue) EnqueueEntryNotification(ctx context.Context, n *EntryNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
		asynq.Queue("default"),
	}

	task := asynq.NewTask(TaskTypeEntryNotify, payload, opts...)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}
