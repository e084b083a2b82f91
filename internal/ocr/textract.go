package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	cfg "github.com/locapass/docverify/config"
	"github.com/locapass/docverify/pkg/logger"
)

// TextractEngine 基于 AWS Textract 的托管 OCR 引擎
//
// The Textract client is concurrency-safe; no serialization needed.
type TextractEngine struct {
	client        *textract.Client
	minConfidence float32
	logger        logger.Logger
	closeOnce     sync.Once
}

func NewTextractEngine(ctx context.Context, log logger.Logger) (*TextractEngine, error) {
	textractCfg := cfg.GetTextractConfig()

	creds := credentials.NewStaticCredentialsProvider(
		textractCfg.AccessKey,
		textractCfg.SecretKey,
		"",
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(textractCfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &TextractEngine{
		client:        textract.NewFromConfig(awsCfg),
		minConfidence: 80.0,
		logger:        log,
	}, nil
}

func (e *TextractEngine) ExtractText(ctx context.Context, data []byte) (string, error) {
	// Same fast path as the local engine: born-digital PDFs carry
	// their own text layer.
	if isPDF(data) {
		text, err := extractPDFText(data)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	result, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{
			Bytes: data,
		},
	})
	if err != nil {
		return "", &ProcessingError{Op: "textract", Err: err}
	}

	var lines []string
	for _, block := range result.Blocks {
		if block.BlockType == types.BlockTypeLine &&
			block.Confidence != nil &&
			*block.Confidence >= e.minConfidence &&
			block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func (e *TextractEngine) Close() error {
	// The Textract client holds no local session.
	return nil
}
