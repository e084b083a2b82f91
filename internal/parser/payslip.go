package parser

import (
	"regexp"

	"github.com/locapass/docverify/internal/models"
)

var (
	payEmployee = regexp.MustCompile(`(?i)(?:salari[ée](?:\(e\))?|employee|nom du salari[ée])\s*[:.]?\s*([\p{L}' -]+)`)
	payEmployer = regexp.MustCompile(`(?i)(?:employeur|employer|raison sociale)\s*[:.]?\s*([\p{L}0-9&' -]+)`)
	payPeriod   = regexp.MustCompile(`(?i)(?:p[ée]riode(?: de paie)?|paie du|pay period)\s*(?:du|:)?\s*[:.]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{4})`)
	payNet      = regexp.MustCompile(`(?i)(?:net [àa] payer|salaire net|net pay)\s*[:.]?\s*([\d .,\x{00a0}\x{202f}]+)`)
	payGross    = regexp.MustCompile(`(?i)(?:salaire brut|brut|gross pay|gross salary)\s*[:.]?\s*([\d .,\x{00a0}\x{202f}]+)`)
)

func parsePayslip(text string, fields models.FieldMap) {
	if v, ok := captureName(text, payEmployee); ok {
		fields["employee_name"] = v
	}
	if v, ok := captureName(text, payEmployer); ok {
		fields["employer_name"] = v
	}
	if v, ok := captureDate(text, payPeriod); ok {
		fields["pay_period"] = v
	}
	if v, ok := captureAmount(text, payNet); ok {
		fields["net_salary"] = v
	}
	if v, ok := captureAmount(text, payGross); ok {
		fields["gross_salary"] = v
	}
}
