package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clearhaul/docvalidator/internal/classify"
	"github.com/clearhaul/docvalidator/internal/extract"
	"github.com/clearhaul/docvalidator/internal/match"
	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/internal/notify"
	"github.com/clearhaul/docvalidator/internal/repository"
	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/storage"
)

// Fixed message templates, one per terminal status.
const (
	msgNoSample          = "No sample document available for this document type"
	msgBothExtractFail   = "Text extraction failed for both the submitted document and the sample"
	msgSubmitExtractFail = "Text extraction failed for the submitted document"
	msgSampleExtractFail = "Text extraction failed for the sample document"
	msgAccepted          = "Document validated successfully"
	msgOtherError        = "Validation failed due to an internal error"
)

// FieldMatcher scores the configured key fields against extracted text.
type FieldMatcher interface {
	Match(text string, fields []models.KeyField) (map[string]models.FieldMatch, float64)
}

// Orchestrator sequences extraction, classification and field matching for
// one document, applies the per-type thresholds and persists the outcome.
// It is the only writer of document validation state.
type Orchestrator struct {
	docs           repository.Documents
	samples        repository.SampleConfigs
	storage        storage.Storage
	extractor      *extract.Service
	classifier     *classify.Classifier
	matcher        FieldMatcher
	notifier       *notify.Notifier
	extractTimeout time.Duration
	logger         logger.Logger
}

func NewOrchestrator(
	docs repository.Documents,
	samples repository.SampleConfigs,
	store storage.Storage,
	extractor *extract.Service,
	classifier *classify.Classifier,
	matcher FieldMatcher,
	notifier *notify.Notifier,
	extractTimeout time.Duration,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		docs:           docs,
		samples:        samples,
		storage:        store,
		extractor:      extractor,
		classifier:     classifier,
		matcher:        matcher,
		notifier:       notifier,
		extractTimeout: extractTimeout,
		logger:         log,
	}
}

// Run validates one document and returns its resulting status. Failures are
// terminal statuses, not errors; an error is returned only when the outcome
// could not be persisted.
func (o *Orchestrator) Run(ctx context.Context, doc *models.SubmittedDocument) (models.ValidationStatus, error) {
	log := o.logger.With(
		logger.String("documentId", doc.ID),
		logger.String("entryId", doc.EntryID),
		logger.String("docTypeId", doc.DocTypeID),
	)

	// 1. Resolve the sample configuration.
	sc, err := o.samples.GetByDocType(ctx, doc.DocTypeID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && sc.SampleKey == "") {
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:  models.StatusNoSampleAvailable,
			Message: msgNoSample,
		})
	}
	if err != nil {
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:  models.StatusOtherError,
			Message: msgOtherError,
		})
	}

	// 2. Validation explicitly deferred: leave Pending, write nothing.
	if !sc.AIValidateEnabled {
		log.Info("AI validation disabled for document type, leaving pending")
		return models.StatusPending, nil
	}

	// 3. Fetch and extract both texts under a bounded deadline.
	extractCtx, cancel := context.WithTimeout(ctx, o.extractTimeout)
	defer cancel()

	submittedText := o.fetchText(extractCtx, doc.StorageKey, doc.FileName)
	sampleText := o.fetchText(extractCtx, sc.SampleKey, sc.SampleKey)

	if err := extractCtx.Err(); err != nil {
		log.Error("Extraction deadline exceeded", logger.Error(err))
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:  models.StatusOtherError,
			Message: msgOtherError,
		})
	}

	switch {
	case submittedText == "" && sampleText == "":
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:  models.StatusBothExtractionFailed,
			Message: msgBothExtractFail,
		})
	case submittedText == "":
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:  models.StatusSubmittedExtractionFailed,
			Message: msgSubmitExtractFail,
		})
	case sampleText == "":
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:           models.StatusSampleExtractionFailed,
			ExtractedContent: submittedText,
			Message:          msgSampleExtractFail,
		})
	}

	// 4. Classify both texts and compare against the confidence threshold.
	detected := o.classifier.Classify(submittedText)
	expected := o.classifier.Classify(sampleText)
	docSimilarity := match.TextSimilarity(submittedText, sampleText) * 100
	confidenceFloor := sc.ConfidenceThreshold / 100

	typeResult := &models.DocumentTypeResult{
		ExpectedType:       expected.Type,
		DetectedType:       detected.Type,
		ExpectedConfidence: expected.Confidence,
		DetectedConfidence: detected.Confidence,
		Similarity:         docSimilarity,
	}

	if reason := typeMismatchReason(detected, expected, confidenceFloor); reason != "" {
		typeResult.Message = reason
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:           models.StatusTypeMismatch,
			Results:          &models.ValidationResult{DocumentType: typeResult},
			ExtractedContent: submittedText,
			DocSimilarity:    &docSimilarity,
			Message:          reason,
		})
	}
	typeResult.IsValid = true

	// 5–6. Field matching; an internal scoring failure maps to OtherError.
	fields, matchPct, err := o.score(submittedText, sc.KeyFields)
	if err != nil {
		log.Error("Field scoring failed", logger.Error(err))
		return o.finish(ctx, doc, repository.ValidationUpdate{
			Status:           models.StatusOtherError,
			ExtractedContent: submittedText,
			DocSimilarity:    &docSimilarity,
			Message:          msgOtherError,
		})
	}

	// 7. Accept or reject on the aggregate percentage.
	status := models.StatusAccepted
	message := msgAccepted
	if matchPct < sc.ContentSimilarityThreshold {
		status = models.StatusRejected
		message = fmt.Sprintf("Content match %.0f%% is below the required %.0f%%",
			matchPct, sc.ContentSimilarityThreshold)
	}

	return o.finish(ctx, doc, repository.ValidationUpdate{
		Status: status,
		Results: &models.ValidationResult{
			Fields:       fields,
			DocumentType: typeResult,
		},
		ExtractedContent: submittedText,
		MatchPercentage:  &matchPct,
		DocSimilarity:    &docSimilarity,
		Message:          message,
	})
}

// finish persists the outcome atomically and triggers the entry completion
// check.
func (o *Orchestrator) finish(ctx context.Context, doc *models.SubmittedDocument, update repository.ValidationUpdate) (models.ValidationStatus, error) {
	if err := o.docs.UpdateValidation(ctx, doc.ID, update); err != nil {
		return update.Status, fmt.Errorf("failed to persist validation outcome: %w", err)
	}

	o.logger.Info("Validation run finished",
		logger.String("documentId", doc.ID),
		logger.String("status", update.Status.String()),
		logger.String("message", update.Message),
	)

	if update.Status.Terminal() {
		if err := o.notifier.OnResolved(ctx, doc.ID); err != nil {
			o.logger.Error("Entry completion check failed",
				logger.String("documentId", doc.ID),
				logger.Error(err),
			)
		}
	}
	return update.Status, nil
}

// fetchText downloads a blob into a scoped temporary file and extracts its
// text. The temp copy is deleted on every exit path. Fetch and extraction
// failures normalize to empty text.
func (o *Orchestrator) fetchText(ctx context.Context, key, nameHint string) string {
	rc, err := o.storage.Get(ctx, key)
	if err != nil {
		o.logger.Error("Blob fetch failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return ""
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "docvalidator-*")
	if err != nil {
		o.logger.Error("Failed to create temp file", logger.Error(err))
		return ""
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, rc); err != nil {
		o.logger.Error("Blob download failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return ""
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return ""
	}

	hint := filepath.Ext(nameHint)
	if hint == "" {
		hint = filepath.Ext(key)
	}
	return o.extractor.Extract(ctx, tmp, hint)
}

// score runs the field matcher, converting a matcher panic into an error so
// a scoring bug surfaces as OtherError instead of killing a batch run.
func (o *Orchestrator) score(text string, fields []models.KeyField) (result map[string]models.FieldMatch, pct float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("field scoring panicked: %v", r)
		}
	}()
	result, pct = o.matcher.Match(text, fields)
	return result, pct, nil
}

func typeMismatchReason(detected, expected classify.Result, confidenceFloor float64) string {
	switch {
	case detected.Type == "" || detected.Confidence <= 0:
		return "Document type could not be determined from the submitted document"
	case expected.Type == "" || expected.Confidence <= 0:
		return "Document type could not be determined from the sample document"
	case !strings.EqualFold(detected.Type, expected.Type):
		return fmt.Sprintf("Detected document type %q does not match expected type %q",
			detected.Type, expected.Type)
	case detected.Confidence < confidenceFloor:
		return fmt.Sprintf("Detected type confidence %.2f is below the required %.2f",
			detected.Confidence, confidenceFloor)
	case expected.Confidence < confidenceFloor:
		return fmt.Sprintf("Sample type confidence %.2f is below the required %.2f",
			expected.Confidence, confidenceFloor)
	default:
		return ""
	}
}
