package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/locapass/docverify/config"
	"github.com/locapass/docverify/pkg/logger"
)

// TesseractEngine 本地 Tesseract OCR 引擎
//
// The underlying gosseract client is not safe for concurrent use, so
// every extraction serializes on one mutex. Initialization happens
// lazily on the first call; an init failure is sticky and every later
// call fails with the same ProcessingError until Close resets it.
type TesseractEngine struct {
	mu            sync.Mutex
	client        *gosseract.Client
	initErr       error
	initialized   bool
	languages     []string
	preprocess    bool
	preprocessors []Preprocessor
	logger        logger.Logger
}

func NewTesseractEngine(log logger.Logger, cfg *config.OCRConfig) *TesseractEngine {
	return &TesseractEngine{
		languages:     cfg.Languages,
		preprocess:    cfg.Preprocess,
		preprocessors: DefaultPreprocessors(),
		logger:        log,
	}
}

// ExtractText 对文档执行 OCR
//
// PDF locators take the embedded text-layer fast path; anything else
// is decoded as an image, preprocessed and recognized by Tesseract.
func (e *TesseractEngine) ExtractText(ctx context.Context, data []byte) (string, error) {
	// The text layer of a born-digital PDF beats re-rasterizing it.
	if isPDF(data) {
		text, err := extractPDFText(data)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err != nil {
			e.logger.Warn("PDF text layer unavailable, falling back to OCR", logger.Error(err))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initLocked(); err != nil {
		return "", &ProcessingError{Op: "ocr-init", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return "", &ProcessingError{Op: "ocr", Err: err}
	}

	payload := data
	if e.preprocess {
		if processed, err := e.preprocessImage(data); err == nil {
			payload = processed
		} else {
			e.logger.Warn("Image preprocessing failed, using raw bytes", logger.Error(err))
		}
	}

	if err := e.client.SetImageFromBytes(payload); err != nil {
		return "", &ProcessingError{Op: "ocr", Err: fmt.Errorf("failed to set image: %w", err)}
	}

	// Tesseract has no cancellation hook, so recognition runs in a
	// goroutine and the ctx deadline converts to an extraction failure.
	type ocrResult struct {
		text string
		err  error
	}
	done := make(chan ocrResult, 1)
	go func() {
		text, err := e.client.Text()
		done <- ocrResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", &ProcessingError{Op: "ocr", Err: res.err}
		}
		return res.text, nil
	case <-ctx.Done():
		return "", &ProcessingError{Op: "ocr", Err: ctx.Err()}
	}
}

// initLocked 惰性初始化 Tesseract 会话，调用方必须持有 e.mu
func (e *TesseractEngine) initLocked() error {
	if e.initialized {
		return e.initErr
	}
	e.initialized = true

	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Join(e.languages, "+")); err != nil {
		client.Close()
		e.initErr = fmt.Errorf("failed to set language: %w", err)
		return e.initErr
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		e.initErr = fmt.Errorf("failed to set page segmentation mode: %w", err)
		return e.initErr
	}

	e.client = client
	e.logger.Info("Tesseract session initialized",
		logger.String("languages", strings.Join(e.languages, "+")),
	)
	return nil
}

func (e *TesseractEngine) preprocessImage(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	for _, p := range e.preprocessors {
		img, err = p.Process(img)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, imaging.Clone(img), &jpeg.Options{Quality: 100}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Close 释放 Tesseract 会话
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.initialized = false
	e.initErr = nil

	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}
