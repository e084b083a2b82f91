package models

import (
	"time"
)

// DocumentType 支持的文档类型
type DocumentType string

const (
	DocumentTypeIdentity      DocumentType = "identity"
	DocumentTypeTaxNotice     DocumentType = "tax_notice"
	DocumentTypePayslip       DocumentType = "payslip"
	DocumentTypeBankStatement DocumentType = "bank_statement"
)

// KnownDocumentTypes lists every type the parser and rule tables cover.
var KnownDocumentTypes = []DocumentType{
	DocumentTypeIdentity,
	DocumentTypeTaxNotice,
	DocumentTypePayslip,
	DocumentTypeBankStatement,
}

// IsKnown reports whether t has a dedicated parser and rule set.
func (t DocumentType) IsKnown() bool {
	for _, known := range KnownDocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FieldRawText is present in every FieldMap and carries the full OCR output.
const FieldRawText = "raw_text"

// FieldMap 从单个文档提取的归一化字段
//
// Values are strings for names/dates/ids, float64 for amounts, and
// DateRange for bank statement periods. A field the parser could not
// match is absent, never nil or empty. The map is produced once per
// document and must not be mutated afterwards.
type FieldMap map[string]interface{}

// DateRange 银行对账单的对账期间
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Severity 校验错误的严重级别
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// ValidationError 数据质量问题，作为返回值而不是 error 传播
type ValidationError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Field      string   `json:"field,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// ValidationWarning 不阻断校验的提示信息
type ValidationWarning struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// StageResult is what a single validation stage (basic, semantic or
// cross-document) reports back to the orchestrator. Stages are
// independent: none of them sees another stage's findings.
type StageResult struct {
	IsValid    bool                `json:"isValid"`
	Confidence float64             `json:"confidence"`
	Errors     []ValidationError   `json:"errors"`
	Warnings   []ValidationWarning `json:"warnings"`
}

// HasCritical reports whether any error in the stage is critical.
func (r StageResult) HasCritical() bool {
	for _, e := range r.Errors {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// DocumentValidationResult 单个文档的最终校验结论
//
// Immutable once produced. A re-validation creates a new record with a
// fresh DocumentID rather than updating the old one; only a cache hit
// returns the same DocumentID twice.
type DocumentValidationResult struct {
	DocumentID       string              `json:"documentId"`
	TenantID         string              `json:"tenantId"`
	DocumentType     DocumentType        `json:"documentType"`
	IsValid          bool                `json:"isValid"`
	Confidence       float64             `json:"confidence"`
	Errors           []ValidationError   `json:"errors"`
	Warnings         []ValidationWarning `json:"warnings"`
	ExtractedData    FieldMap            `json:"extractedData"`
	ProcessingTimeMs int64               `json:"processingTimeMs"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Error codes shared across stages.
const (
	CodeProcessingError     = "PROCESSING_ERROR"
	CodeMissingField        = "MISSING_FIELD"
	CodeInvalidFormat       = "INVALID_FORMAT"
	CodeInvalidDate         = "INVALID_DATE"
	CodeDateTooOld          = "DATE_TOO_OLD"
	CodeFutureDate          = "FUTURE_DATE"
	CodeExpiredIdentity     = "EXPIRED_IDENTITY"
	CodeExpiringIdentity    = "EXPIRING_IDENTITY"
	CodeUnusualSalaryRatio  = "UNUSUAL_SALARY_RATIO"
	CodeStaleTaxYear        = "STALE_TAX_YEAR"
	CodeNameInconsistency   = "NAME_INCONSISTENCY"
	CodeIncomeInconsistency = "INCOME_INCONSISTENCY"
	CodeDateInconsistency   = "DATE_INCONSISTENCY"
	CodeHistoryUnavailable  = "HISTORY_UNAVAILABLE"
)
