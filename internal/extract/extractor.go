package extract

import (
	"context"
	"io"
	"strings"

	"github.com/clearhaul/docvalidator/pkg/logger"
)

// Extractor converts one document format into plain text.
type Extractor interface {
	// CanExtract reports whether the extractor handles the MIME type.
	CanExtract(mimeType string) bool
	// Extract reads the document and returns its text.
	Extract(ctx context.Context, reader io.Reader) (string, error)
}

// Extension hints map to MIME types; selection is by declared hint, never by
// sniffing content.
var extToMIME = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tiff": "image/tiff",
}

// Service routes extraction to the adapter registered for the format hint.
// It never fails outward: unsupported formats, adapter errors, and empty
// output all normalize to an empty string, with the cause logged. Callers
// branch on "extraction produced nothing" only.
type Service struct {
	extractors map[string]Extractor
	logger     logger.Logger
}

func NewService(log logger.Logger, extractors ...Extractor) *Service {
	s := &Service{
		extractors: make(map[string]Extractor),
		logger:     log,
	}
	for mime := range mimeSet() {
		for _, e := range extractors {
			if e.CanExtract(mime) {
				s.extractors[mime] = e
				break
			}
		}
	}
	return s
}

func mimeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(extToMIME))
	for _, mime := range extToMIME {
		set[mime] = struct{}{}
	}
	return set
}

// Extract converts raw document bytes to plain text using the adapter for
// the declared format hint (a file extension or MIME type).
func (s *Service) Extract(ctx context.Context, reader io.Reader, formatHint string) string {
	mimeType := formatHint
	if mapped, ok := extToMIME[strings.ToLower(formatHint)]; ok {
		mimeType = mapped
	}

	extractor, ok := s.extractors[mimeType]
	if !ok {
		s.logger.Warn("No extractor for format",
			logger.String("formatHint", formatHint),
			logger.String("mimeType", mimeType),
		)
		return ""
	}

	text, err := extractor.Extract(ctx, reader)
	if err != nil {
		s.logger.Error("Extraction failed",
			logger.String("mimeType", mimeType),
			logger.Error(err),
		)
		return ""
	}

	return strings.TrimSpace(text)
}
