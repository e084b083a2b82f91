package validation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/internal/rules"
	"github.com/locapass/docverify/pkg/logger"
)

type stubEngine struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	closed bool
}

func (e *stubEngine) ExtractText(ctx context.Context, data []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.text, e.err
}

func (e *stubEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

type stubFetcher struct {
	err error
}

func (f *stubFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader("document bytes")), nil
}

type stubStore struct {
	mu      sync.Mutex
	saved   []*models.DocumentValidationResult
	saveErr error
	listErr error
}

func (s *stubStore) Save(ctx context.Context, result *models.DocumentValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, result)
	return nil
}

func (s *stubStore) ValidResults(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var valid []models.DocumentValidationResult
	for _, r := range s.saved {
		if r.TenantID == tenantID && r.IsValid {
			valid = append(valid, *r)
		}
	}
	return valid, nil
}

func (s *stubStore) History(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var all []models.DocumentValidationResult
	for _, r := range s.saved {
		if r.TenantID == tenantID {
			all = append(all, *r)
		}
	}
	return all, nil
}

const payslipText = "Salarié : Marie DUPONT Employeur : ACME SARL Période du 01/05/2024 Net à payer : 2 000,00 Salaire brut : 2 600,00"

func newTestService(engine *stubEngine, docFetcher *stubFetcher, store *stubStore) *Service {
	return NewService(engine, docFetcher, rules.DefaultTable(), store, logger.NewTestLogger(), nil)
}

func TestValidateDocumentHappyPath(t *testing.T) {
	engine := &stubEngine{text: payslipText}
	store := &stubStore{}
	svc := newTestService(engine, &stubFetcher{}, store)

	result, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("ValidateDocument() error = %v", err)
	}

	if !result.IsValid {
		t.Fatalf("expected valid result, got %+v", result)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", result.Confidence)
	}
	if result.ExtractedData["net_salary"] != float64(2000) {
		t.Fatalf("net_salary = %v", result.ExtractedData["net_salary"])
	}
	if result.DocumentID == "" || result.TenantID != "tenant-1" {
		t.Fatalf("result identity not populated: %+v", result)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 persisted result, got %d", len(store.saved))
	}
}

func TestValidateDocumentCacheHit(t *testing.T) {
	engine := &stubEngine{text: payslipText}
	svc := newTestService(engine, &stubFetcher{}, &stubStore{})

	first, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("first call error = %v", err)
	}
	second, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}

	if first.DocumentID != second.DocumentID {
		t.Fatalf("cache hit must return the same result, got %s and %s", first.DocumentID, second.DocumentID)
	}
	if engine.calls != 1 {
		t.Fatalf("engine called %d times, want 1", engine.calls)
	}
}

func TestValidateDocumentCacheKeyIncludesType(t *testing.T) {
	engine := &stubEngine{text: payslipText}
	svc := newTestService(engine, &stubFetcher{}, &stubStore{})

	_, err := svc.ValidateDocument(context.Background(), "http://docs/doc.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("payslip call error = %v", err)
	}
	_, err = svc.ValidateDocument(context.Background(), "http://docs/doc.pdf", models.DocumentTypeBankStatement, "tenant-1")
	if err != nil {
		t.Fatalf("bank statement call error = %v", err)
	}

	if engine.calls != 2 {
		t.Fatalf("same locator with another type must re-extract, engine calls = %d", engine.calls)
	}
}

func TestValidateDocumentExtractionFailureIsTerminal(t *testing.T) {
	engine := &stubEngine{err: errors.New("tesseract exploded")}
	store := &stubStore{}
	svc := newTestService(engine, &stubFetcher{}, store)

	result, err := svc.ValidateDocument(context.Background(), "http://docs/broken.pdf", models.DocumentTypeIdentity, "tenant-1")
	if err != nil {
		t.Fatalf("terminal results are returned, not raised: %v", err)
	}

	if result.IsValid {
		t.Fatalf("expected invalid result")
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", result.Confidence)
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != models.CodeProcessingError {
		t.Fatalf("expected single PROCESSING_ERROR, got %+v", result.Errors)
	}
	if result.Errors[0].Severity != models.SeverityCritical {
		t.Fatalf("severity = %s, want critical", result.Errors[0].Severity)
	}
	if len(store.saved) != 1 {
		t.Fatalf("terminal results are persisted too, got %d", len(store.saved))
	}

	// The terminal result is cached like any other outcome.
	again, err := svc.ValidateDocument(context.Background(), "http://docs/broken.pdf", models.DocumentTypeIdentity, "tenant-1")
	if err != nil {
		t.Fatalf("cached terminal call error = %v", err)
	}
	if again.DocumentID != result.DocumentID {
		t.Fatalf("expected cached terminal result")
	}
}

func TestValidateDocumentFetchFailureIsTerminal(t *testing.T) {
	svc := newTestService(&stubEngine{text: payslipText}, &stubFetcher{err: errors.New("404")}, &stubStore{})

	result, err := svc.ValidateDocument(context.Background(), "http://docs/missing.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsValid || result.Errors[0].Code != models.CodeProcessingError {
		t.Fatalf("expected terminal result, got %+v", result)
	}
}

func TestValidateDocumentStoreFailureDoesNotBlock(t *testing.T) {
	store := &stubStore{saveErr: errors.New("db down")}
	svc := newTestService(&stubEngine{text: payslipText}, &stubFetcher{}, store)

	result, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("persistence failures must not surface: %v", err)
	}
	if !result.IsValid {
		t.Fatalf("expected valid result, got %+v", result)
	}
}

func TestValidateDocumentMergesPessimistically(t *testing.T) {
	// All basic rules pass but the net/gross ratio is implausible, so
	// the semantic stage pulls the merged confidence down to 0.7.
	text := "Salarié : Marie DUPONT Employeur : ACME SARL Période du 01/05/2024 Net à payer : 2 000,00 Salaire brut : 2 100,00"
	svc := newTestService(&stubEngine{text: text}, &stubFetcher{}, &stubStore{})

	result, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("ValidateDocument() error = %v", err)
	}

	if !result.IsValid {
		t.Fatalf("warnings must not invalidate, got %+v", result)
	}
	if result.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", result.Confidence)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Code == models.CodeUnusualSalaryRatio {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected UNUSUAL_SALARY_RATIO in merged warnings, got %+v", result.Warnings)
	}
}

func TestValidateDocumentMergedWarningsKeepStageOrder(t *testing.T) {
	// One finding per stage: the 2010 pay period trips the date range
	// rule, the 0.95 net/gross ratio trips the salary check, and the
	// prior tax notice declares far more income than the payslip.
	text := "Salarié : Marie DUPONT Employeur : ACME SARL Période du 01/05/2010 Net à payer : 2 000,00 Salaire brut : 2 100,00"
	store := &stubStore{saved: []*models.DocumentValidationResult{{
		DocumentID:   "prior-1",
		TenantID:     "tenant-1",
		DocumentType: models.DocumentTypeTaxNotice,
		IsValid:      true,
		ExtractedData: models.FieldMap{
			"taxpayer_name":  "Marie DUPONT",
			"annual_revenue": 50000.0,
		},
	}}}
	svc := newTestService(&stubEngine{text: text}, &stubFetcher{}, store)

	result, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1")
	if err != nil {
		t.Fatalf("ValidateDocument() error = %v", err)
	}

	idx := func(code string) int {
		for i, w := range result.Warnings {
			if w.Code == code {
				return i
			}
		}
		t.Fatalf("missing %s in merged warnings: %+v", code, result.Warnings)
		return -1
	}
	basic := idx(models.CodeDateTooOld)
	semantic := idx(models.CodeUnusualSalaryRatio)
	cross := idx(models.CodeIncomeInconsistency)
	if basic >= semantic || semantic >= cross {
		t.Fatalf("warnings out of stage order: basic=%d semantic=%d cross=%d", basic, semantic, cross)
	}
}

func TestValidateBatchPreservesOrder(t *testing.T) {
	svc := newTestService(&stubEngine{text: payslipText}, &stubFetcher{}, &stubStore{})

	requests := []Request{
		{Locator: "http://docs/a.pdf", DocumentType: models.DocumentTypePayslip},
		{Locator: "http://docs/b.pdf", DocumentType: models.DocumentTypeBankStatement},
		{Locator: "http://docs/c.pdf", DocumentType: models.DocumentTypeIdentity},
	}
	results, err := svc.ValidateBatch(context.Background(), "tenant-1", requests)
	if err != nil {
		t.Fatalf("ValidateBatch() error = %v", err)
	}

	if len(results) != len(requests) {
		t.Fatalf("got %d results, want %d", len(results), len(requests))
	}
	for i, req := range requests {
		if results[i] == nil || results[i].DocumentType != req.DocumentType {
			t.Fatalf("result %d out of order: %+v", i, results[i])
		}
	}
}

func TestCleanupClearsCacheAndEngine(t *testing.T) {
	engine := &stubEngine{text: payslipText}
	svc := newTestService(engine, &stubFetcher{}, &stubStore{})

	if _, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1"); err != nil {
		t.Fatalf("seed call error = %v", err)
	}
	if err := svc.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if !engine.closed {
		t.Fatalf("expected engine to be closed")
	}

	if _, err := svc.ValidateDocument(context.Background(), "http://docs/payslip.pdf", models.DocumentTypePayslip, "tenant-1"); err != nil {
		t.Fatalf("post-cleanup call error = %v", err)
	}
	if engine.calls != 2 {
		t.Fatalf("cleanup must invalidate the cache, engine calls = %d", engine.calls)
	}
}
