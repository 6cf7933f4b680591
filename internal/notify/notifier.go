package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/internal/repository"
	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/queue"
)

// Notifier decides when an entry's document set is fully resolved and hands
// exactly one aggregated summary to the notification queue. Delivery itself
// belongs to the worker.
type Notifier struct {
	docs   repository.Documents
	guard  Guard
	queue  queue.Queue
	window time.Duration
	logger logger.Logger
}

func NewNotifier(docs repository.Documents, guard Guard, q queue.Queue, window time.Duration, log logger.Logger) *Notifier {
	return &Notifier{
		docs:   docs,
		guard:  guard,
		queue:  q,
		window: window,
		logger: log,
	}
}

// OnResolved is called after the orchestrator persists a non-Pending
// status. It checks entry completion and, behind the dedup guard, enqueues
// one summary.
func (n *Notifier) OnResolved(ctx context.Context, documentID string) error {
	doc, err := n.docs.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	progress, err := n.docs.EntryProgress(ctx, doc.EntryID)
	if err != nil {
		return fmt.Errorf("failed to compute entry progress: %w", err)
	}
	if progress.ResolvedCount < progress.TotalCount {
		return nil
	}

	won, err := n.guard.TryAcquire(ctx, doc.EntryID, n.window)
	if err != nil {
		return fmt.Errorf("dedup guard failed for entry %s: %w", doc.EntryID, err)
	}
	if !won {
		n.logger.Debug("Entry notification already recorded within window",
			logger.String("entryId", doc.EntryID),
		)
		return nil
	}

	entryDocs, err := n.docs.ListByEntry(ctx, doc.EntryID)
	if err != nil {
		return fmt.Errorf("failed to list entry documents: %w", err)
	}

	outcomes := make([]models.DocumentOutcome, 0, len(entryDocs))
	for _, d := range entryDocs {
		outcomes = append(outcomes, models.DocumentOutcome{
			DocumentID:      d.ID,
			FileName:        d.FileName,
			Status:          d.Status,
			MatchPercentage: d.MatchPercentage,
			Message:         d.Message,
		})
	}

	err = n.queue.EnqueueEntryNotification(ctx, &queue.EntryNotification{
		EntryID:     doc.EntryID,
		Outcomes:    outcomes,
		CompletedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue entry notification: %w", err)
	}

	n.logger.Info("Entry fully resolved, notification enqueued",
		logger.String("entryId", doc.EntryID),
		logger.Int("documents", len(outcomes)),
	)
	return nil
}
