package parser

import (
	"regexp"
	"strings"

	"github.com/locapass/docverify/internal/models"
)

// Parse 将 OCR 文本解析为指定文档类型的字段映射
//
// Pure function of its inputs. Unknown document types yield a map
// holding only raw_text; a field that cannot be matched is absent,
// never nil or an empty string.
func Parse(text string, docType models.DocumentType) models.FieldMap {
	fields := models.FieldMap{
		models.FieldRawText: text,
	}

	normalized := normalizeWhitespace(text)

	switch docType {
	case models.DocumentTypeIdentity:
		parseIdentity(normalized, fields)
	case models.DocumentTypeTaxNotice:
		parseTaxNotice(normalized, fields)
	case models.DocumentTypePayslip:
		parsePayslip(normalized, fields)
	case models.DocumentTypeBankStatement:
		parseBankStatement(normalized, fields)
	}

	return fields
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeWhitespace 将连续空白折叠为单个空格
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Label keywords that terminate a captured name value. OCR text has no
// reliable line structure after whitespace folding, so a match that ran
// into the next label gets cut here.
var nameStopwords = map[string]bool{
	"nom":       true,
	"prénom":    true,
	"prenom":    true,
	"surname":   true,
	"first":     true,
	"given":     true,
	"né":        true,
	"nee":       true,
	"née":       true,
	"born":      true,
	"date":      true,
	"valable":   true,
	"expire":    true,
	"délivré":   true,
	"delivre":   true,
	"numéro":    true,
	"numero":    true,
	"employeur": true,
	"employer":  true,
	"salarié":   true,
	"salarie":   true,
	"période":   true,
	"periode":   true,
	"salaire":   true,
	"net":       true,
	"brut":      true,
	"solde":     true,
	"balance":   true,
	"revenu":    true,
	"revenus":   true,
	"nombre":    true,
	"montant":   true,
	"compte":    true,
	"iban":      true,
	"adresse":   true,
	"address":   true,
}

// trimAtStopword 在捕获值里遇到下一个标签关键词时截断
func trimAtStopword(value string) string {
	words := strings.Fields(value)
	kept := words[:0]
	for _, w := range words {
		if nameStopwords[strings.ToLower(strings.Trim(w, ":.,;"))] {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// captureName 提取标签后的人名或机构名
func captureName(text string, pattern *regexp.Regexp) (string, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := trimAtStopword(strings.TrimSpace(m[1]))
	if v == "" {
		return "", false
	}
	return v, true
}

// captureDate 提取标签后的日期并归一化为 YYYY-MM-DD
func captureDate(text string, pattern *regexp.Regexp) (string, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return NormalizeDate(m[1])
}

// captureAmount 提取标签后的金额并归一化为 float64
func captureAmount(text string, pattern *regexp.Regexp) (float64, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return NormalizeAmount(m[1])
}
