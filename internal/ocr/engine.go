package ocr

import (
	"context"
	"fmt"

	"github.com/locapass/docverify/config"
	"github.com/locapass/docverify/pkg/logger"
)

// Engine 将文档字节流转换为识别文本
//
// Engines hold one long-lived OCR session, lazily initialized at most
// once per process. Close releases the session; after Close the engine
// must not be reused.
type Engine interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
	Close() error
}

// ProcessingError 标记基础设施层面的提取失败
//
// Distinguishes "could not process at all" from data-quality findings,
// which are values on the validation result and never errors.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing error during %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewEngine 按配置选择 OCR 引擎
func NewEngine(log logger.Logger) (Engine, error) {
	ocrConfig := config.GetOCRConfig()

	switch ocrConfig.Engine {
	case "tesseract", "":
		return NewTesseractEngine(log, ocrConfig), nil
	case "textract":
		return NewTextractEngine(context.Background(), log)
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", ocrConfig.Engine)
	}
}
