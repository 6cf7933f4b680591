package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	cfg "github.com/clearhaul/docvalidator/config"
	"github.com/clearhaul/docvalidator/pkg/logger"
)

// TextractExtractor is the managed-OCR alternative to the tesseract
// adapter, selected with ENGINE_OCR_BACKEND=textract.
type TextractExtractor struct {
	client *textract.Client
	logger logger.Logger
}

func NewTextractExtractor(ctx context.Context, log logger.Logger) (*TextractExtractor, error) {
	txCfg := cfg.GetTextractConfig()

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(txCfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			txCfg.AccessKey,
			txCfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &TextractExtractor{
		client: textract.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

func (t *TextractExtractor) CanExtract(mimeType string) bool {
	_, ok := imageMIMETypes[mimeType]
	return ok
}

func (t *TextractExtractor) Extract(ctx context.Context, reader io.Reader) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	out, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: content},
	})
	if err != nil {
		return "", fmt.Errorf("textract detection failed: %w", err)
	}

	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}

	return strings.Join(lines, "\n"), nil
}
