package validate

import (
	"context"

	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/internal/repository"
	"github.com/clearhaul/docvalidator/pkg/logger"
)

// BatchResult reports one batch invocation.
type BatchResult struct {
	ProcessedCount int                      `json:"processedCount"`
	Results        []models.DocumentOutcome `json:"results"`
}

// Batch drives the orchestrator over every pending document whose type has
// AI validation enabled. Documents are independent: one failure never stops
// the rest, and terminal documents are excluded by selection, so re-running
// a batch never rewrites settled outcomes.
type Batch struct {
	docs   repository.Documents
	orch   *Orchestrator
	logger logger.Logger
}

func NewBatch(docs repository.Documents, orch *Orchestrator, log logger.Logger) *Batch {
	return &Batch{
		docs:   docs,
		orch:   orch,
		logger: log,
	}
}

// RunPending validates every selectable document once, collecting
// per-document outcomes for reporting.
func (b *Batch) RunPending(ctx context.Context) (*BatchResult, error) {
	pending, err := b.docs.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Results: make([]models.DocumentOutcome, 0, len(pending)),
	}

	for _, doc := range pending {
		outcome := models.DocumentOutcome{
			DocumentID: doc.ID,
			FileName:   doc.FileName,
		}

		status, err := b.orch.Run(ctx, doc)
		if err != nil {
			b.logger.Error("Batch item failed",
				logger.String("documentId", doc.ID),
				logger.Error(err),
			)
			outcome.Status = models.StatusOtherError
			outcome.Message = err.Error()
		} else {
			outcome.Status = status
			if updated, err := b.docs.Get(ctx, doc.ID); err == nil {
				outcome.MatchPercentage = updated.MatchPercentage
				outcome.Message = updated.Message
			}
		}

		result.Results = append(result.Results, outcome)
		result.ProcessedCount++
	}

	b.logger.Info("Batch validation finished",
		logger.Int("processed", result.ProcessedCount),
	)
	return result, nil
}
