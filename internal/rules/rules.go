package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/locapass/docverify/internal/models"
)

// RuleKind 基础校验规则的种类
type RuleKind string

const (
	KindRequired    RuleKind = "required"
	KindFormat      RuleKind = "format"
	KindDate        RuleKind = "date"
	KindConsistency RuleKind = "consistency"
	KindAPICheck    RuleKind = "api_check"
)

// ValidationRule 单条声明式字段校验规则
//
// Rules are data, not code: the same table drives evaluation and is
// editable without a rebuild. MinValue/MaxValue bound the year of date
// rules; a zero MaxValue means "the current year at evaluation time".
type ValidationRule struct {
	ID           string              `yaml:"id" json:"id"`
	DocumentType models.DocumentType `yaml:"document_type" json:"documentType"`
	Field        string              `yaml:"field" json:"field"`
	Kind         RuleKind            `yaml:"kind" json:"kind"`
	Pattern      string              `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	MinValue     float64             `yaml:"min_value,omitempty" json:"minValue,omitempty"`
	MaxValue     float64             `yaml:"max_value,omitempty" json:"maxValue,omitempty"`
	Threshold    float64             `yaml:"threshold" json:"threshold"`
	Enabled      bool                `yaml:"enabled" json:"enabled"`
}

// CrossAlgorithm 跨文档比较算法
type CrossAlgorithm string

const (
	AlgorithmNamesMatch      CrossAlgorithm = "names_match"
	AlgorithmIncomeCoherence CrossAlgorithm = "income_coherence"
	AlgorithmDatesCoherent   CrossAlgorithm = "dates_coherent"
)

// CrossValidationRule 跨文档一致性规则
//
// Applies only when the tenant already has a validated document whose
// type is in Documents and differs from the current one.
type CrossValidationRule struct {
	ID        string                `yaml:"id" json:"id"`
	Name      string                `yaml:"name" json:"name"`
	Documents []models.DocumentType `yaml:"documents" json:"documents"`
	Fields    []string              `yaml:"fields" json:"fields"`
	Rule      CrossAlgorithm        `yaml:"rule" json:"rule"`
	Threshold float64               `yaml:"threshold" json:"threshold"`
	Enabled   bool                  `yaml:"enabled" json:"enabled"`
}

// Table 完整的规则表
type Table struct {
	Rules      []ValidationRule      `yaml:"rules"`
	CrossRules []CrossValidationRule `yaml:"cross_rules"`
}

// ForDocumentType 返回指定类型已启用的基础规则
func (t *Table) ForDocumentType(docType models.DocumentType) []ValidationRule {
	var matched []ValidationRule
	for _, r := range t.Rules {
		if r.Enabled && r.DocumentType == docType {
			matched = append(matched, r)
		}
	}
	return matched
}

// CrossRulesFor 返回覆盖指定类型的已启用跨文档规则
func (t *Table) CrossRulesFor(docType models.DocumentType) []CrossValidationRule {
	var matched []CrossValidationRule
	for _, r := range t.CrossRules {
		if !r.Enabled {
			continue
		}
		for _, dt := range r.Documents {
			if dt == docType {
				matched = append(matched, r)
				break
			}
		}
	}
	return matched
}

// Load 从 YAML 文件加载规则表，路径为空时返回默认规则表
func Load(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	return &table, nil
}

// DefaultTable 编译进二进制的默认规则表
func DefaultTable() *Table {
	return &Table{
		Rules: []ValidationRule{
			{ID: "identity_last_name", DocumentType: models.DocumentTypeIdentity, Field: "last_name", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "identity_first_name", DocumentType: models.DocumentTypeIdentity, Field: "first_name", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "identity_birth_date", DocumentType: models.DocumentTypeIdentity, Field: "birth_date", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "identity_expiration", DocumentType: models.DocumentTypeIdentity, Field: "expiration_date", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "identity_birth_date_range", DocumentType: models.DocumentTypeIdentity, Field: "birth_date", Kind: KindDate, MinValue: 1920, Threshold: 0.7, Enabled: true},
			{ID: "identity_doc_number", DocumentType: models.DocumentTypeIdentity, Field: "document_number", Kind: KindFormat, Pattern: `^[A-Z0-9]{6,}$`, Threshold: 0.7, Enabled: true},

			{ID: "tax_fiscal_year", DocumentType: models.DocumentTypeTaxNotice, Field: "fiscal_year", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "tax_taxpayer_name", DocumentType: models.DocumentTypeTaxNotice, Field: "taxpayer_name", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "tax_annual_revenue", DocumentType: models.DocumentTypeTaxNotice, Field: "annual_revenue", Kind: KindRequired, Threshold: 0.8, Enabled: true},

			{ID: "payslip_employee_name", DocumentType: models.DocumentTypePayslip, Field: "employee_name", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "payslip_net_salary", DocumentType: models.DocumentTypePayslip, Field: "net_salary", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "payslip_gross_salary", DocumentType: models.DocumentTypePayslip, Field: "gross_salary", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "payslip_period_range", DocumentType: models.DocumentTypePayslip, Field: "pay_period", Kind: KindDate, MinValue: 2015, Threshold: 0.7, Enabled: true},

			{ID: "bank_account_holder", DocumentType: models.DocumentTypeBankStatement, Field: "account_holder", Kind: KindRequired, Threshold: 0.8, Enabled: true},
			{ID: "bank_balance", DocumentType: models.DocumentTypeBankStatement, Field: "balance", Kind: KindRequired, Threshold: 0.8, Enabled: true},
		},
		CrossRules: []CrossValidationRule{
			{
				ID:        "cross_names",
				Name:      "Name consistency",
				Documents: models.KnownDocumentTypes,
				Fields:    []string{"full_name", "taxpayer_name", "employee_name", "account_holder"},
				Rule:      AlgorithmNamesMatch,
				Threshold: 0.8,
				Enabled:   true,
			},
			{
				ID:        "cross_income",
				Name:      "Income coherence",
				Documents: []models.DocumentType{models.DocumentTypePayslip, models.DocumentTypeTaxNotice},
				Fields:    []string{"net_salary", "annual_revenue"},
				Rule:      AlgorithmIncomeCoherence,
				Threshold: 0.3,
				Enabled:   true,
			},
			{
				ID:        "cross_dates",
				Name:      "Temporal coherence",
				Documents: []models.DocumentType{models.DocumentTypePayslip, models.DocumentTypeTaxNotice, models.DocumentTypeBankStatement},
				Fields:    []string{"pay_period", "fiscal_year", "statement_period"},
				Rule:      AlgorithmDatesCoherent,
				Threshold: 90,
				Enabled:   true,
			},
		},
	}
}
