package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/clearhaul/docvalidator/pkg/logger"
)

var imageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/tiff": {},
}

// OCRExtractor runs tesseract over a preprocessed raster image. Scanned
// documents go through grayscale and contrast normalization first; that is
// enough for the engine's keyword-level needs.
type OCRExtractor struct {
	languages []string
	logger    logger.Logger
}

func NewOCRExtractor(log logger.Logger) *OCRExtractor {
	return &OCRExtractor{
		languages: []string{"eng"},
		logger:    log,
	}
}

func (o *OCRExtractor) CanExtract(mimeType string) bool {
	_, ok := imageMIMETypes[mimeType]
	return ok
}

func (o *OCRExtractor) Extract(ctx context.Context, reader io.Reader) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	if preprocessed, err := o.preprocess(content); err == nil {
		content = preprocessed
	} else {
		o.logger.Warn("Image preprocessing failed, using raw image",
			logger.Error(err),
		)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.languages...); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(content); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return text, nil
}

func (o *OCRExtractor) preprocess(content []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 20)
	img = imaging.Sharpen(img, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}
