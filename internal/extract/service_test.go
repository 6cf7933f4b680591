package extract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearhaul/docvalidator/pkg/logger"
)

type stubExtractor struct {
	mime string
	text string
	err  error
}

func (s *stubExtractor) CanExtract(mimeType string) bool { return mimeType == s.mime }

func (s *stubExtractor) Extract(ctx context.Context, reader io.Reader) (string, error) {
	return s.text, s.err
}

func TestServiceExtractRoutesByHint(t *testing.T) {
	svc := NewService(logger.NewTestLogger(),
		&stubExtractor{mime: "application/pdf", text: "  pdf text  \n"},
	)

	text := svc.Extract(context.Background(), strings.NewReader("raw"), ".pdf")

	assert.Equal(t, "pdf text", text)
}

func TestServiceExtractAcceptsMIMEHint(t *testing.T) {
	svc := NewService(logger.NewTestLogger(),
		&stubExtractor{mime: "application/pdf", text: "pdf text"},
	)

	text := svc.Extract(context.Background(), strings.NewReader("raw"), "application/pdf")

	assert.Equal(t, "pdf text", text)
}

func TestServiceExtractNeverFails(t *testing.T) {
	log := logger.NewTestLogger()
	svc := NewService(log,
		&stubExtractor{mime: "application/pdf", err: errors.New("corrupt stream")},
	)

	tests := []struct {
		name string
		hint string
	}{
		{"adapter error", ".pdf"},
		{"unsupported format", ".csv"},
		{"empty hint", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := svc.Extract(context.Background(), strings.NewReader("raw"), tt.hint)
			assert.Empty(t, text)
		})
	}

	// Failures surface in the log, not the return.
	assert.NotEmpty(t, log.Entries())
}
