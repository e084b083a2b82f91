package validation

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/locapass/docverify/config"
	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/internal/ocr"
	"github.com/locapass/docverify/internal/parser"
	"github.com/locapass/docverify/internal/rules"
	"github.com/locapass/docverify/internal/store/postgres"
	"github.com/locapass/docverify/internal/validator"
	"github.com/locapass/docverify/pkg/fetcher"
	"github.com/locapass/docverify/pkg/logger"
)

// DocumentValidator 文档校验流水线的对外接口
type DocumentValidator interface {
	ValidateDocument(ctx context.Context, locator string, docType models.DocumentType, tenantID string) (*models.DocumentValidationResult, error)
	ValidateBatch(ctx context.Context, tenantID string, requests []Request) ([]*models.DocumentValidationResult, error)
	History(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error)
	Cleanup() error
}

// Request 批量校验中的单个文档
type Request struct {
	Locator      string              `json:"locator"`
	DocumentType models.DocumentType `json:"documentType"`
}

// ResultStore 校验结果的持久化协作方
type ResultStore interface {
	Save(ctx context.Context, result *models.DocumentValidationResult) error
	ValidResults(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error)
	History(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error)
}

// ServiceConfig 流水线配置
type ServiceConfig struct {
	ExtractTimeout time.Duration
	MaxConcurrent  int
}

// Service 校验编排器
//
// Sequences fetch → extract → parse → basic → semantic → cross, merges
// the stage outputs pessimistically and owns the in-process cache.
// Infrastructure failures never propagate past this type: they become
// terminal results with a critical PROCESSING_ERROR.
type Service struct {
	engine   ocr.Engine
	fetcher  fetcher.Fetcher
	basic    *validator.BasicValidator
	semantic *validator.SemanticValidator
	cross    *validator.CrossValidator
	store    ResultStore
	cache    ResultCache
	logger   logger.Logger
	config   *ServiceConfig
}

func NewService(
	engine ocr.Engine,
	docFetcher fetcher.Fetcher,
	table *rules.Table,
	store ResultStore,
	log logger.Logger,
	cfg *ServiceConfig,
) *Service {
	if cfg == nil {
		cfg = &ServiceConfig{
			ExtractTimeout: 60 * time.Second,
			MaxConcurrent:  4,
		}
	}

	return &Service{
		engine:   engine,
		fetcher:  docFetcher,
		basic:    validator.NewBasicValidator(table),
		semantic: validator.NewSemanticValidator(),
		cross:    validator.NewCrossValidator(table, store, log),
		store:    store,
		cache:    NewMemoryCache(),
		logger:   log,
		config:   cfg,
	}
}

// GetService 按环境配置装配完整流水线
func GetService(log logger.Logger) (DocumentValidator, error) {
	table, err := rules.Load(config.GetRulesConfig().Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule table: %w", err)
	}

	docFetcher, err := fetcher.NewFetcher(log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fetcher: %w", err)
	}

	engine, err := ocr.NewEngine(log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
	}

	store, err := postgres.NewResultStore(config.GetPostgresConfig().DSN, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result store: %w", err)
	}

	cfg := &ServiceConfig{
		ExtractTimeout: config.GetOCRConfig().Timeout,
		MaxConcurrent:  4,
	}

	return NewService(engine, docFetcher, table, store, log, cfg), nil
}

// ValidateDocument 校验单个文档并返回完整结论
//
// Always returns a fully-formed result: isValid=false with
// confidence=0 signals "could not process", distinguishable from
// "processed but failed quality checks".
func (s *Service) ValidateDocument(ctx context.Context, locator string, docType models.DocumentType, tenantID string) (*models.DocumentValidationResult, error) {
	start := time.Now()
	cacheKey := locator + "|" + string(docType)

	if cached, ok := s.cache.Get(cacheKey); ok {
		s.logger.Info("Validation served from cache",
			logger.String("documentId", cached.DocumentID),
			logger.String("locator", locator),
		)
		return cached, nil
	}

	s.logger.Info("Starting document validation",
		logger.String("locator", locator),
		logger.String("documentType", string(docType)),
		logger.String("tenantId", tenantID),
	)

	text, err := s.extractText(ctx, locator)
	if err != nil {
		s.logger.Error("Text extraction failed",
			logger.String("locator", locator),
			logger.Error(err),
		)
		result := s.terminalResult(docType, tenantID, err, start)
		s.finish(ctx, cacheKey, result)
		return result, nil
	}

	fields := parser.Parse(text, docType)

	// Stages run strictly basic → semantic → cross over the same
	// immutable field map; only the merge below sees all three.
	basicRes := s.basic.Validate(fields, docType)
	semanticRes := s.semantic.Validate(fields, docType)
	crossRes := s.cross.Validate(ctx, fields, docType, tenantID)

	result := &models.DocumentValidationResult{
		DocumentID:       uuid.New().String(),
		TenantID:         tenantID,
		DocumentType:     docType,
		IsValid:          basicRes.IsValid && semanticRes.IsValid && crossRes.IsValid,
		Confidence:       minConfidence(basicRes.Confidence, semanticRes.Confidence, crossRes.Confidence),
		Errors:           concatErrors(basicRes.Errors, semanticRes.Errors, crossRes.Errors),
		Warnings:         concatWarnings(basicRes.Warnings, semanticRes.Warnings, crossRes.Warnings),
		ExtractedData:    fields,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now(),
	}

	s.finish(ctx, cacheKey, result)

	s.logger.Info("Document validation completed",
		logger.String("documentId", result.DocumentID),
		logger.Bool("isValid", result.IsValid),
		logger.Float64("confidence", result.Confidence),
		logger.Int64("processingMs", result.ProcessingTimeMs),
	)

	return result, nil
}

// ValidateBatch 并发校验同一租户的多个文档
func (s *Service) ValidateBatch(ctx context.Context, tenantID string, requests []Request) ([]*models.DocumentValidationResult, error) {
	results := make([]*models.DocumentValidationResult, len(requests))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrent)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			result, err := s.ValidateDocument(ctx, req.Locator, req.DocumentType, tenantID)
			if err != nil {
				return fmt.Errorf("failed to validate %s: %w", req.Locator, err)
			}

			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// History 返回租户的完整校验历史，按时间倒序
func (s *Service) History(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error) {
	return s.store.History(ctx, tenantID)
}

// Cleanup 清空缓存并释放 OCR 会话
func (s *Service) Cleanup() error {
	s.cache.Clear()
	return s.engine.Close()
}

// extractText 拉取文档并执行 OCR，提取受超时约束
func (s *Service) extractText(ctx context.Context, locator string) (string, error) {
	body, err := s.fetcher.Fetch(ctx, locator)
	if err != nil {
		return "", &ocr.ProcessingError{Op: "fetch", Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", &ocr.ProcessingError{Op: "fetch", Err: err}
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.config.ExtractTimeout)
	defer cancel()

	return s.engine.ExtractText(extractCtx, data)
}

// terminalResult 构造提取失败时的终结结果
func (s *Service) terminalResult(docType models.DocumentType, tenantID string, cause error, start time.Time) *models.DocumentValidationResult {
	return &models.DocumentValidationResult{
		DocumentID:   uuid.New().String(),
		TenantID:     tenantID,
		DocumentType: docType,
		IsValid:      false,
		Confidence:   0,
		Errors: []models.ValidationError{
			{
				Code:     models.CodeProcessingError,
				Message:  cause.Error(),
				Severity: models.SeverityCritical,
			},
		},
		Warnings:         []models.ValidationWarning{},
		ExtractedData:    models.FieldMap{},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now(),
	}
}

// finish 写缓存并持久化；持久化失败只记录日志，不影响返回
func (s *Service) finish(ctx context.Context, cacheKey string, result *models.DocumentValidationResult) {
	s.cache.Put(cacheKey, result)

	if err := s.store.Save(ctx, result); err != nil {
		s.logger.Error("Failed to persist validation result",
			logger.String("documentId", result.DocumentID),
			logger.Error(err),
		)
	}
}

func minConfidence(values ...float64) float64 {
	min := 1.0
	for _, v := range values {
		if v < min {
			min = v
		}
	}
	return min
}

func concatErrors(lists ...[]models.ValidationError) []models.ValidationError {
	merged := []models.ValidationError{}
	for _, list := range lists {
		merged = append(merged, list...)
	}
	return merged
}

func concatWarnings(lists ...[]models.ValidationWarning) []models.ValidationWarning {
	merged := []models.ValidationWarning{}
	for _, list := range lists {
		merged = append(merged, list...)
	}
	return merged
}
