package validator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/internal/rules"
	"github.com/locapass/docverify/pkg/logger"
)

// HistoryProvider 提供租户历史上已通过校验的结果
type HistoryProvider interface {
	ValidResults(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error)
}

// CrossValidator 将当前文档与租户已校验的文档做交叉比对
//
// Cross-checks are advisory enrichment, never a gate: findings are
// major errors or warnings, never critical, and an unavailable history
// store degrades the stage instead of failing the validation.
type CrossValidator struct {
	table   *rules.Table
	history HistoryProvider
	logger  logger.Logger
}

func NewCrossValidator(table *rules.Table, history HistoryProvider, log logger.Logger) *CrossValidator {
	return &CrossValidator{
		table:   table,
		history: history,
		logger:  log,
	}
}

func (v *CrossValidator) Validate(ctx context.Context, fields models.FieldMap, docType models.DocumentType, tenantID string) models.StageResult {
	result := models.StageResult{
		IsValid:    true,
		Confidence: 1.0,
		Errors:     []models.ValidationError{},
		Warnings:   []models.ValidationWarning{},
	}

	prior, err := v.history.ValidResults(ctx, tenantID)
	if err != nil {
		v.logger.Warn("Validation history unavailable, skipping cross-document checks",
			logger.String("tenantId", tenantID),
			logger.Error(err),
		)
		result.Confidence = 0.5
		return result
	}

	if len(prior) == 0 {
		return result
	}

	for _, rule := range v.table.CrossRulesFor(docType) {
		for _, other := range prior {
			if other.DocumentType == docType || !containsType(rule.Documents, other.DocumentType) {
				continue
			}

			switch rule.Rule {
			case rules.AlgorithmNamesMatch:
				v.compareNames(rule, fields, other, &result)
			case rules.AlgorithmIncomeCoherence:
				v.compareIncome(rule, fields, docType, other, &result)
			case rules.AlgorithmDatesCoherent:
				v.compareDates(rule, fields, docType, other, &result)
			}
		}
	}

	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		result.Confidence = 0.7
	}

	result.IsValid = !result.HasCritical()
	return result
}

func (v *CrossValidator) compareNames(rule rules.CrossValidationRule, fields models.FieldMap, other models.DocumentValidationResult, result *models.StageResult) {
	current, ok := representativeName(fields)
	if !ok {
		return
	}
	previous, ok := representativeName(other.ExtractedData)
	if !ok {
		return
	}

	if sim := Similarity(current, previous); sim < rule.Threshold {
		result.Errors = append(result.Errors, models.ValidationError{
			Code:     models.CodeNameInconsistency,
			Message:  fmt.Sprintf("name %q does not match %q from a previously validated %s (similarity %.2f)", current, previous, other.DocumentType, sim),
			Severity: models.SeverityMajor,
		})
	}
}

func (v *CrossValidator) compareIncome(rule rules.CrossValidationRule, fields models.FieldMap, docType models.DocumentType, other models.DocumentValidationResult, result *models.StageResult) {
	current, ok := annualizedIncome(fields, docType)
	if !ok {
		return
	}
	previous, ok := annualizedIncome(other.ExtractedData, other.DocumentType)
	if !ok {
		return
	}

	max := math.Max(current, previous)
	if max == 0 {
		return
	}

	if diff := math.Abs(current-previous) / max; diff > rule.Threshold {
		result.Warnings = append(result.Warnings, models.ValidationWarning{
			Code:    models.CodeIncomeInconsistency,
			Message: fmt.Sprintf("annualized income %.2f differs from %.2f declared on a %s by %.0f%%", current, previous, other.DocumentType, diff*100),
		})
	}
}

func (v *CrossValidator) compareDates(rule rules.CrossValidationRule, fields models.FieldMap, docType models.DocumentType, other models.DocumentValidationResult, result *models.StageResult) {
	current, ok := representativeDate(fields)
	if !ok {
		return
	}
	previous, ok := representativeDate(other.ExtractedData)
	if !ok {
		return
	}

	gap := int(math.Abs(current.Sub(previous).Hours()) / 24)
	if float64(gap) > rule.Threshold {
		result.Warnings = append(result.Warnings, models.ValidationWarning{
			Code:    models.CodeDateInconsistency,
			Message: fmt.Sprintf("document is %d days apart from a previously validated %s", gap, other.DocumentType),
		})
	}
}

func containsType(types []models.DocumentType, t models.DocumentType) bool {
	for _, dt := range types {
		if dt == t {
			return true
		}
	}
	return false
}

// representativeName 按优先级取文档中代表持有人的名字
func representativeName(fields models.FieldMap) (string, bool) {
	for _, key := range []string{"full_name", "taxpayer_name", "employee_name", "account_holder"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// annualizedIncome 取文档收入并折算为年收入
//
// A payslip carries a monthly figure; ×12 assumes monthly pay periods,
// which is a known limitation for other cadences.
func annualizedIncome(fields models.FieldMap, docType models.DocumentType) (float64, bool) {
	if net, ok := fieldNumber(fields, "net_salary"); ok {
		if docType == models.DocumentTypePayslip {
			return net * 12, true
		}
		return net, true
	}
	if revenue, ok := fieldNumber(fields, "annual_revenue"); ok {
		return revenue, true
	}
	return 0, false
}

// representativeDate 按优先级取文档的代表日期
func representativeDate(fields models.FieldMap) (time.Time, bool) {
	if raw, ok := fields["pay_period"].(string); ok {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t, true
		}
	}
	if year, ok := fieldNumber(fields, "fiscal_year"); ok {
		return time.Date(int(year), time.December, 31, 0, 0, 0, 0, time.UTC), true
	}
	if end, ok := statementEnd(fields); ok {
		if t, err := time.Parse("2006-01-02", end); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// statementEnd 读取对账期间的结束日期，兼容 JSON 反序列化出的 map
func statementEnd(fields models.FieldMap) (string, bool) {
	switch v := fields["statement_period"].(type) {
	case models.DateRange:
		return v.End, v.End != ""
	case map[string]interface{}:
		end, ok := v["end"].(string)
		return end, ok && end != ""
	default:
		return "", false
	}
}
