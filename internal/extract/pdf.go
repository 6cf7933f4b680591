package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/clearhaul/docvalidator/pkg/logger"
)

// PDFExtractor pulls the embedded text of every page and concatenates them
// in page order.
type PDFExtractor struct {
	logger logger.Logger
}

func NewPDFExtractor(log logger.Logger) *PDFExtractor {
	return &PDFExtractor{logger: log}
}

func (p *PDFExtractor) CanExtract(mimeType string) bool {
	return mimeType == "application/pdf"
}

func (p *PDFExtractor) Extract(ctx context.Context, reader io.Reader) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	// pdf.NewReader needs io.ReaderAt
	r := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(r, r.Size())
	if err != nil {
		return "", err
	}

	numPages := pdfReader.NumPage()
	pageTexts := make([]string, numPages)

	g, ctx := errgroup.WithContext(ctx)
	maxWorkers := 4
	sem := make(chan struct{}, maxWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}

			text, err := page.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("failed to get text from page %d: %w", pageNum, err)
			}

			pageTexts[pageNum-1] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	return strings.Join(pageTexts, "\n"), nil
}
