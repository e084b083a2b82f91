package validator

import (
	"testing"
	"time"

	"github.com/locapass/docverify/internal/models"
)

func newSemanticAt(t *testing.T, now time.Time) *SemanticValidator {
	t.Helper()
	v := NewSemanticValidator()
	v.now = func() time.Time { return now }
	return v
}

func TestSemanticExpiredIdentityIsCritical(t *testing.T) {
	v := newSemanticAt(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	fields := models.FieldMap{"expiration_date": "2020-01-01"}
	result := v.Validate(fields, models.DocumentTypeIdentity)

	if result.IsValid {
		t.Fatalf("expected invalid result")
	}
	e := findError(result.Errors, models.CodeExpiredIdentity)
	if e == nil {
		t.Fatalf("expected EXPIRED_IDENTITY, got %+v", result.Errors)
	}
	if e.Severity != models.SeverityCritical {
		t.Fatalf("severity = %s, want critical", e.Severity)
	}
	if result.Confidence != 0.1 {
		t.Fatalf("confidence = %v, want 0.1", result.Confidence)
	}
	if e.Suggestion == "" {
		t.Fatalf("expected a suggestion on the expiry error")
	}
}

func TestSemanticExpiringIdentityIsWarning(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	v := newSemanticAt(t, now)

	fields := models.FieldMap{"expiration_date": "2026-06-15"}
	result := v.Validate(fields, models.DocumentTypeIdentity)

	if !result.IsValid {
		t.Fatalf("expiring soon must stay valid")
	}
	if findWarning(result.Warnings, models.CodeExpiringIdentity) == nil {
		t.Fatalf("expected EXPIRING_IDENTITY, got %+v", result.Warnings)
	}
	if result.Confidence != 0.8 {
		t.Fatalf("confidence = %v, want 0.8", result.Confidence)
	}
}

func TestSemanticSalaryRatioWithinRangeIsSilent(t *testing.T) {
	v := newSemanticAt(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	fields := models.FieldMap{"net_salary": 2000.0, "gross_salary": 2600.0}
	result := v.Validate(fields, models.DocumentTypePayslip)

	if len(result.Warnings) != 0 {
		t.Fatalf("ratio 0.77 should pass, got %+v", result.Warnings)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", result.Confidence)
	}
}

func TestSemanticUnusualSalaryRatio(t *testing.T) {
	v := newSemanticAt(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	fields := models.FieldMap{"net_salary": 2000.0, "gross_salary": 2100.0}
	result := v.Validate(fields, models.DocumentTypePayslip)

	if findWarning(result.Warnings, models.CodeUnusualSalaryRatio) == nil {
		t.Fatalf("expected UNUSUAL_SALARY_RATIO, got %+v", result.Warnings)
	}
	if result.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", result.Confidence)
	}
	if !result.IsValid {
		t.Fatalf("warning must not invalidate")
	}
}

func TestSemanticStaleTaxYear(t *testing.T) {
	v := newSemanticAt(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	fields := models.FieldMap{"fiscal_year": 2022.0}
	result := v.Validate(fields, models.DocumentTypeTaxNotice)

	if findWarning(result.Warnings, models.CodeStaleTaxYear) == nil {
		t.Fatalf("expected STALE_TAX_YEAR, got %+v", result.Warnings)
	}
	if result.Confidence != 0.6 {
		t.Fatalf("confidence = %v, want 0.6", result.Confidence)
	}
}

func TestSemanticRecentTaxYearIsSilent(t *testing.T) {
	v := newSemanticAt(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	fields := models.FieldMap{"fiscal_year": 2025.0}
	result := v.Validate(fields, models.DocumentTypeTaxNotice)

	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", result.Warnings)
	}
}

func TestSemanticBankStatementHasNoChecks(t *testing.T) {
	v := newSemanticAt(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	result := v.Validate(models.FieldMap{"balance": -500.0}, models.DocumentTypeBankStatement)

	if !result.IsValid || result.Confidence != 1.0 {
		t.Fatalf("bank statements pass the semantic stage untouched, got %+v", result)
	}
}
