package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/internal/rules"
)

// BasicValidator 按声明式规则表执行字段级校验
type BasicValidator struct {
	table *rules.Table
	now   func() time.Time
}

func NewBasicValidator(table *rules.Table) *BasicValidator {
	return &BasicValidator{
		table: table,
		now:   time.Now,
	}
}

// basicOutcome carries the stage result plus the internal valid-rules
// tally, which is bookkeeping only and not part of the returned shape.
type basicOutcome struct {
	result     models.StageResult
	validRules int
}

// Validate 对解析出的字段执行该文档类型的全部启用规则
func (v *BasicValidator) Validate(fields models.FieldMap, docType models.DocumentType) models.StageResult {
	return v.evaluate(fields, docType).result
}

func (v *BasicValidator) evaluate(fields models.FieldMap, docType models.DocumentType) basicOutcome {
	outcome := basicOutcome{
		result: models.StageResult{
			IsValid:    true,
			Confidence: 1.0,
			Errors:     []models.ValidationError{},
			Warnings:   []models.ValidationWarning{},
		},
	}

	// Confidence is the mean over rules that actually evaluated;
	// rules skipped on an absent value do not drag the score down.
	var confidences []float64

	for _, rule := range v.table.ForDocumentType(docType) {
		value, present := fields[rule.Field]

		switch rule.Kind {
		case rules.KindRequired:
			if !present || isBlank(value) {
				outcome.result.Errors = append(outcome.result.Errors, models.ValidationError{
					Code:     models.CodeMissingField,
					Message:  fmt.Sprintf("required field %q is missing", rule.Field),
					Severity: models.SeverityCritical,
					Field:    rule.Field,
				})
				confidences = append(confidences, 0)
				continue
			}
			confidences = append(confidences, 1.0)
			outcome.validRules++

		case rules.KindFormat:
			// Absence is the required rule's business, not ours.
			if !present {
				continue
			}
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				continue
			}
			if !re.MatchString(fmt.Sprintf("%v", value)) {
				outcome.result.Errors = append(outcome.result.Errors, models.ValidationError{
					Code:     models.CodeInvalidFormat,
					Message:  fmt.Sprintf("field %q does not match expected format", rule.Field),
					Severity: models.SeverityMajor,
					Field:    rule.Field,
				})
				confidences = append(confidences, 0.3)
				continue
			}
			confidences = append(confidences, 1.0)
			outcome.validRules++

		case rules.KindDate:
			if !present {
				continue
			}
			year, ok := yearOf(value)
			if !ok {
				outcome.result.Errors = append(outcome.result.Errors, models.ValidationError{
					Code:     models.CodeInvalidDate,
					Message:  fmt.Sprintf("field %q is not a valid date", rule.Field),
					Severity: models.SeverityMajor,
					Field:    rule.Field,
				})
				confidences = append(confidences, 0.2)
				continue
			}

			maxYear := int(rule.MaxValue)
			if maxYear == 0 {
				maxYear = v.now().Year()
			}

			switch {
			case rule.MinValue > 0 && year < int(rule.MinValue):
				outcome.result.Warnings = append(outcome.result.Warnings, models.ValidationWarning{
					Code:    models.CodeDateTooOld,
					Message: fmt.Sprintf("field %q looks old: year %d is before %d", rule.Field, year, int(rule.MinValue)),
					Field:   rule.Field,
				})
				confidences = append(confidences, 0.7)
			case year > maxYear:
				outcome.result.Errors = append(outcome.result.Errors, models.ValidationError{
					Code:     models.CodeFutureDate,
					Message:  fmt.Sprintf("field %q is a future date: year %d is after %d", rule.Field, year, maxYear),
					Severity: models.SeverityMajor,
					Field:    rule.Field,
				})
				confidences = append(confidences, 0.1)
			default:
				confidences = append(confidences, 1.0)
				outcome.validRules++
			}
		}
	}

	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		outcome.result.Confidence = sum / float64(len(confidences))
	}

	outcome.result.IsValid = !outcome.result.HasCritical()
	return outcome
}

func isBlank(value interface{}) bool {
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

// yearOf 提取日期字段的年份，接受 ISO 日期字符串或年份数值
func yearOf(value interface{}) (int, bool) {
	switch v := value.(type) {
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return 0, false
		}
		return t.Year(), true
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
