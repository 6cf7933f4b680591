package models

import (
	"time"
)

// ValidationStatus is the persisted outcome of a validation run. Every
// status except Pending is terminal: only an explicit resubmission moves a
// document back to Pending.
type ValidationStatus int

const (
	StatusPending                   ValidationStatus = 0
	StatusAccepted                  ValidationStatus = 1
	StatusRejected                  ValidationStatus = 2
	StatusNoSampleAvailable         ValidationStatus = 3
	StatusSampleExtractionFailed    ValidationStatus = 4
	StatusSubmittedExtractionFailed ValidationStatus = 5
	StatusBothExtractionFailed      ValidationStatus = 6
	StatusOtherError                ValidationStatus = 7
	StatusTypeMismatch              ValidationStatus = 8
)

func (s ValidationStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusNoSampleAvailable:
		return "no_sample_available"
	case StatusSampleExtractionFailed:
		return "sample_extraction_failed"
	case StatusSubmittedExtractionFailed:
		return "submitted_extraction_failed"
	case StatusBothExtractionFailed:
		return "both_extraction_failed"
	case StatusOtherError:
		return "other_error"
	case StatusTypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status will not change without resubmission.
func (s ValidationStatus) Terminal() bool {
	return s != StatusPending
}

// Section names the part of a document a key field belongs to.
type Section string

const (
	SectionHeader Section = "header"
	SectionBody   Section = "body"
	SectionFooter Section = "footer"
)

// KeyField is one required data point of a document type.
type KeyField struct {
	Name    string  `json:"name" yaml:"name"`
	Section Section `json:"section" yaml:"section"`
}

// SubmittedDocument is one customer-provided file instance. Status and the
// diagnostics fields are written only by the validation orchestrator.
type SubmittedDocument struct {
	ID               string            `json:"id"`
	EntryID          string            `json:"entryId"`
	DocTypeID        string            `json:"docTypeId"`
	StorageKey       string            `json:"storageKey"`
	FileName         string            `json:"fileName"`
	Status           ValidationStatus  `json:"status"`
	Results          *ValidationResult `json:"validationResults,omitempty"`
	ExtractedContent string            `json:"extractedContent,omitempty"`
	MatchPercentage  *float64          `json:"matchPercentage,omitempty"`
	DocSimilarity    *float64          `json:"documentSimilarityPercentage,omitempty"`
	Message          string            `json:"message,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// SampleDocumentConfig is the per-document-type reference configuration.
// It is owned by configuration management and read-only to the engine.
type SampleDocumentConfig struct {
	DocTypeID                  string     `json:"docTypeId"`
	SampleKey                  string     `json:"sampleKey"`
	ConfidenceThreshold        float64    `json:"confidenceThreshold"`        // percent
	ContentSimilarityThreshold float64    `json:"contentSimilarityThreshold"` // percent
	AIValidateEnabled          bool       `json:"aiValidateEnabled"`
	KeyFields                  []KeyField `json:"keyFields"`
}

// FieldMatch is the per-field diagnostic produced by the similarity matcher.
type FieldMatch struct {
	Matched         bool     `json:"matched"`
	Similarity      float64  `json:"similarity"`
	MatchedWith     string   `json:"matchedWith,omitempty"`
	Section         Section  `json:"section"`
	ExtractedValues []string `json:"extractedValues,omitempty"`
}

// DocumentTypeResult records the classification comparison between the
// submitted document and the sample.
type DocumentTypeResult struct {
	ExpectedType       string  `json:"expectedType"`
	DetectedType       string  `json:"detectedType"`
	ExpectedConfidence float64 `json:"expectedConfidence"`
	DetectedConfidence float64 `json:"detectedConfidence"`
	IsValid            bool    `json:"isValid"`
	Similarity         float64 `json:"similarity"`
	Message            string  `json:"message,omitempty"`
}

// ValidationResult is the structured diagnostics persisted on a document
// after a run.
type ValidationResult struct {
	Fields       map[string]FieldMatch `json:"fields,omitempty"`
	DocumentType *DocumentTypeResult   `json:"documentType,omitempty"`
}

// EntryProgress summarizes how far an entry's document set has progressed.
type EntryProgress struct {
	EntryID       string `json:"entryId"`
	TotalCount    int    `json:"totalCount"`
	ResolvedCount int    `json:"resolvedCount"` // status != pending
}

// DocumentOutcome is the per-document element of a batch or notification
// summary.
type DocumentOutcome struct {
	DocumentID      string           `json:"documentId"`
	FileName        string           `json:"fileName,omitempty"`
	Status          ValidationStatus `json:"status"`
	MatchPercentage *float64         `json:"matchPercentage,omitempty"`
	Message         string           `json:"message,omitempty"`
}
