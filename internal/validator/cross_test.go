package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/internal/rules"
	"github.com/locapass/docverify/pkg/logger"
)

type stubHistory struct {
	results []models.DocumentValidationResult
	err     error
}

func (s *stubHistory) ValidResults(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error) {
	return s.results, s.err
}

func newCross(t *testing.T, history *stubHistory) *CrossValidator {
	t.Helper()
	return NewCrossValidator(rules.DefaultTable(), history, logger.NewTestLogger())
}

func priorIdentity(name string) models.DocumentValidationResult {
	return models.DocumentValidationResult{
		DocumentID:    "prior-identity",
		TenantID:      "tenant-1",
		DocumentType:  models.DocumentTypeIdentity,
		IsValid:       true,
		Confidence:    0.95,
		ExtractedData: models.FieldMap{"full_name": name},
	}
}

func TestCrossNoHistoryIsFullConfidence(t *testing.T) {
	v := newCross(t, &stubHistory{})

	result := v.Validate(context.Background(), models.FieldMap{"employee_name": "Marie Dupont"}, models.DocumentTypePayslip, "tenant-1")

	if !result.IsValid || result.Confidence != 1.0 {
		t.Fatalf("expected pristine result, got %+v", result)
	}
	if len(result.Errors) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected no findings, got %+v %+v", result.Errors, result.Warnings)
	}
}

func TestCrossHistoryFailureDegradesConfidence(t *testing.T) {
	v := newCross(t, &stubHistory{err: errors.New("store down")})

	result := v.Validate(context.Background(), models.FieldMap{"employee_name": "Marie Dupont"}, models.DocumentTypePayslip, "tenant-1")

	if !result.IsValid {
		t.Fatalf("history failure must not invalidate the document")
	}
	if result.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", result.Confidence)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %+v", result.Errors)
	}
}

func TestCrossNameMismatchIsMajor(t *testing.T) {
	v := newCross(t, &stubHistory{results: []models.DocumentValidationResult{priorIdentity("Jean Martin")}})

	fields := models.FieldMap{"employee_name": "Marie Dupont"}
	result := v.Validate(context.Background(), fields, models.DocumentTypePayslip, "tenant-1")

	e := findError(result.Errors, models.CodeNameInconsistency)
	if e == nil {
		t.Fatalf("expected NAME_INCONSISTENCY, got %+v", result.Errors)
	}
	if e.Severity != models.SeverityMajor {
		t.Fatalf("severity = %s, want major", e.Severity)
	}
	if result.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", result.Confidence)
	}
	if !result.IsValid {
		t.Fatalf("cross findings are never critical")
	}
}

func TestCrossToleratesOCRNameVariants(t *testing.T) {
	v := newCross(t, &stubHistory{results: []models.DocumentValidationResult{priorIdentity("Marie Dupond")}})

	fields := models.FieldMap{"employee_name": "Marie Dupont"}
	result := v.Validate(context.Background(), fields, models.DocumentTypePayslip, "tenant-1")

	if len(result.Errors) != 0 {
		t.Fatalf("one-character OCR drift should pass, got %+v", result.Errors)
	}
}

func TestCrossSameTypeDocumentsAreSkipped(t *testing.T) {
	prior := models.DocumentValidationResult{
		DocumentType:  models.DocumentTypePayslip,
		IsValid:       true,
		ExtractedData: models.FieldMap{"employee_name": "Jean Martin"},
	}
	v := newCross(t, &stubHistory{results: []models.DocumentValidationResult{prior}})

	result := v.Validate(context.Background(), models.FieldMap{"employee_name": "Marie Dupont"}, models.DocumentTypePayslip, "tenant-1")

	if len(result.Errors) != 0 {
		t.Fatalf("same-type documents must not be compared, got %+v", result.Errors)
	}
}

func TestCrossIncomeInconsistency(t *testing.T) {
	priorTax := models.DocumentValidationResult{
		DocumentType: models.DocumentTypeTaxNotice,
		IsValid:      true,
		ExtractedData: models.FieldMap{
			"taxpayer_name":  "Marie Dupont",
			"annual_revenue": 50000.0,
		},
	}
	v := newCross(t, &stubHistory{results: []models.DocumentValidationResult{priorTax}})

	fields := models.FieldMap{
		"employee_name": "Marie Dupont",
		"net_salary":    2000.0,
	}
	result := v.Validate(context.Background(), fields, models.DocumentTypePayslip, "tenant-1")

	// 2000 × 12 = 24000 against 50000 is a 52% gap.
	if findWarning(result.Warnings, models.CodeIncomeInconsistency) == nil {
		t.Fatalf("expected INCOME_INCONSISTENCY, got %+v", result.Warnings)
	}
	if result.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", result.Confidence)
	}
}

func TestCrossCoherentIncomeIsSilent(t *testing.T) {
	priorTax := models.DocumentValidationResult{
		DocumentType: models.DocumentTypeTaxNotice,
		IsValid:      true,
		ExtractedData: models.FieldMap{
			"taxpayer_name":  "Marie Dupont",
			"annual_revenue": 24000.0,
		},
	}
	v := newCross(t, &stubHistory{results: []models.DocumentValidationResult{priorTax}})

	fields := models.FieldMap{
		"employee_name": "Marie Dupont",
		"net_salary":    2000.0,
	}
	result := v.Validate(context.Background(), fields, models.DocumentTypePayslip, "tenant-1")

	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", result.Warnings)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", result.Confidence)
	}
}

func TestCrossDateGap(t *testing.T) {
	priorTax := models.DocumentValidationResult{
		DocumentType: models.DocumentTypeTaxNotice,
		IsValid:      true,
		ExtractedData: models.FieldMap{
			"taxpayer_name": "Marie Dupont",
			"fiscal_year":   2023.0,
		},
	}
	v := newCross(t, &stubHistory{results: []models.DocumentValidationResult{priorTax}})

	fields := models.FieldMap{
		"employee_name": "Marie Dupont",
		"pay_period":    "2025-06-01",
	}
	result := v.Validate(context.Background(), fields, models.DocumentTypePayslip, "tenant-1")

	// 2025-06-01 is well over 90 days past 2023-12-31.
	if findWarning(result.Warnings, models.CodeDateInconsistency) == nil {
		t.Fatalf("expected DATE_INCONSISTENCY, got %+v", result.Warnings)
	}
}

func TestCrossStatementPeriodSurvivesJSONRoundTrip(t *testing.T) {
	priorBank := models.DocumentValidationResult{
		DocumentType: models.DocumentTypeBankStatement,
		IsValid:      true,
		ExtractedData: models.FieldMap{
			"account_holder": "Marie Dupont",
			// Deserialized JSON yields a plain map, not a DateRange.
			"statement_period": map[string]interface{}{"start": "2025-05-01", "end": "2025-05-31"},
		},
	}
	v := newCross(t, &stubHistory{results: []models.DocumentValidationResult{priorBank}})

	fields := models.FieldMap{
		"employee_name": "Marie Dupont",
		"pay_period":    "2025-06-01",
	}
	result := v.Validate(context.Background(), fields, models.DocumentTypePayslip, "tenant-1")

	if len(result.Warnings) != 0 {
		t.Fatalf("one day apart should be coherent, got %+v", result.Warnings)
	}
}
