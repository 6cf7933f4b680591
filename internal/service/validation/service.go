package validation

import (
	"context"
	"io"

	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/internal/validate"
)

// ValidateOneResult is the single-document API result. Unexpected failures
// surface as Success=false with a message, never as a panic to callers.
type ValidateOneResult struct {
	Success            bool                         `json:"success"`
	Status             models.ValidationStatus      `json:"status"`
	MatchPercentage    *float64                     `json:"matchPercentage,omitempty"`
	DocumentSimilarity *float64                     `json:"documentSimilarity,omitempty"`
	Message            string                       `json:"message,omitempty"`
	FieldDiagnostics   map[string]models.FieldMatch `json:"fieldDiagnostics,omitempty"`
}

type ValidationService interface {
	// ValidateOne runs the orchestrator for a single document.
	ValidateOne(ctx context.Context, documentID string) (*ValidateOneResult, error)
	// ValidatePending validates every pending document with an enabled type.
	ValidatePending(ctx context.Context) (*validate.BatchResult, error)
	// GetDocument returns the persisted validation state of a document.
	GetDocument(ctx context.Context, documentID string) (*models.SubmittedDocument, error)
	// Resubmit stores a replacement blob, deletes the previous one and
	// resets the document to Pending.
	Resubmit(ctx context.Context, documentID string, file io.Reader, filename string) error
}
