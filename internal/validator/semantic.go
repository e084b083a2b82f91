package validator

import (
	"fmt"
	"time"

	"github.com/locapass/docverify/internal/models"
)

// SemanticValidator 基于业务语义检查单个文档自身的一致性
//
// Looks only at the current document's fields; cross-document
// comparisons live in CrossValidator.
type SemanticValidator struct {
	now func() time.Time
}

func NewSemanticValidator() *SemanticValidator {
	return &SemanticValidator{now: time.Now}
}

func (v *SemanticValidator) Validate(fields models.FieldMap, docType models.DocumentType) models.StageResult {
	result := models.StageResult{
		IsValid:    true,
		Confidence: 1.0,
		Errors:     []models.ValidationError{},
		Warnings:   []models.ValidationWarning{},
	}

	switch docType {
	case models.DocumentTypeIdentity:
		v.checkIdentityExpiry(fields, &result)
	case models.DocumentTypePayslip:
		v.checkSalaryRatio(fields, &result)
	case models.DocumentTypeTaxNotice:
		v.checkFiscalYear(fields, &result)
	}
	// bank_statement has no semantic checks of its own.

	result.IsValid = !result.HasCritical()
	return result
}

func (v *SemanticValidator) checkIdentityExpiry(fields models.FieldMap, result *models.StageResult) {
	raw, ok := fields["expiration_date"].(string)
	if !ok {
		return
	}
	expiry, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return
	}

	now := v.now()
	switch {
	case expiry.Before(now):
		result.Errors = append(result.Errors, models.ValidationError{
			Code:       models.CodeExpiredIdentity,
			Message:    fmt.Sprintf("identity document expired on %s", raw),
			Severity:   models.SeverityCritical,
			Field:      "expiration_date",
			Suggestion: "ask the tenant for a valid identity document",
		})
		result.Confidence = 0.1
	case expiry.Before(now.AddDate(0, 0, 30)):
		result.Warnings = append(result.Warnings, models.ValidationWarning{
			Code:       models.CodeExpiringIdentity,
			Message:    fmt.Sprintf("identity document expires on %s", raw),
			Field:      "expiration_date",
			Suggestion: "ask the tenant for a renewed document",
		})
		result.Confidence = 0.8
	}
}

func (v *SemanticValidator) checkSalaryRatio(fields models.FieldMap, result *models.StageResult) {
	net, okNet := fieldNumber(fields, "net_salary")
	gross, okGross := fieldNumber(fields, "gross_salary")
	if !okNet || !okGross || gross == 0 {
		return
	}

	// French payroll nets out between 75% and 80% of gross; anything
	// outside [0.5, 0.9] is suspicious but not disqualifying.
	ratio := net / gross
	if ratio < 0.5 || ratio > 0.9 {
		result.Warnings = append(result.Warnings, models.ValidationWarning{
			Code:    models.CodeUnusualSalaryRatio,
			Message: fmt.Sprintf("net/gross ratio %.2f is outside the expected range [0.50, 0.90]", ratio),
			Field:   "net_salary",
		})
		result.Confidence = 0.7
	}
}

func (v *SemanticValidator) checkFiscalYear(fields models.FieldMap, result *models.StageResult) {
	year, ok := fieldNumber(fields, "fiscal_year")
	if !ok {
		return
	}

	if int(year) < v.now().Year()-2 {
		result.Warnings = append(result.Warnings, models.ValidationWarning{
			Code:       models.CodeStaleTaxYear,
			Message:    fmt.Sprintf("tax notice covers fiscal year %d, more than 2 years old", int(year)),
			Field:      "fiscal_year",
			Suggestion: "ask the tenant for a more recent tax notice",
		})
		result.Confidence = 0.6
	}
}

// fieldNumber 读取数值字段，兼容 JSON 反序列化产生的 float64
func fieldNumber(fields models.FieldMap, name string) (float64, bool) {
	switch v := fields[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
