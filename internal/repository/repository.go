package repository

import (
	"context"
	"errors"

	"github.com/clearhaul/docvalidator/internal/models"
)

// ErrNotFound is returned when a document or sample config does not exist.
var ErrNotFound = errors.New("not found")

// ValidationUpdate is the atomic write the orchestrator persists at the end
// of a run: status, diagnostics, percentages and message together.
type ValidationUpdate struct {
	Status           models.ValidationStatus
	Results          *models.ValidationResult
	ExtractedContent string
	MatchPercentage  *float64
	DocSimilarity    *float64
	Message          string
}

// Documents stores submitted documents. The orchestrator is the only writer
// of validation state; Resubmit is the only path back to Pending.
type Documents interface {
	Get(ctx context.Context, id string) (*models.SubmittedDocument, error)
	// ListPending returns Pending documents whose type has AI validation
	// enabled.
	ListPending(ctx context.Context) ([]*models.SubmittedDocument, error)
	ListByEntry(ctx context.Context, entryID string) ([]*models.SubmittedDocument, error)
	UpdateValidation(ctx context.Context, id string, update ValidationUpdate) error
	// Resubmit points the document at a new blob and resets it to Pending,
	// clearing all diagnostics.
	Resubmit(ctx context.Context, id, newStorageKey string) error
	EntryProgress(ctx context.Context, entryID string) (*models.EntryProgress, error)
}

// SampleConfigs reads the per-document-type reference configuration. The
// engine never writes it.
type SampleConfigs interface {
	GetByDocType(ctx context.Context, docTypeID string) (*models.SampleDocumentConfig, error)
}
