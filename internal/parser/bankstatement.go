package parser

import (
	"regexp"

	"github.com/locapass/docverify/internal/models"
)

var (
	bankPeriod  = regexp.MustCompile(`(?i)(?:relev[ée](?: de compte)?|statement)?\s*(?:du|from)\s*(\d{1,2}[./-]\d{1,2}[./-]\d{4})\s*(?:au|to)\s*(\d{1,2}[./-]\d{1,2}[./-]\d{4})`)
	bankBalance = regexp.MustCompile(`(?i)(?:solde(?: cr[ée]diteur| au)?|balance)\s*[:.]?\s*(-?[\d .,\x{00a0}\x{202f}]+)`)
	bankHolder  = regexp.MustCompile(`(?i)(?:titulaire(?: du compte)?|account holder)\s*[:.]?\s*([\p{L}' -]+)`)
)

func parseBankStatement(text string, fields models.FieldMap) {
	if m := bankPeriod.FindStringSubmatch(text); m != nil {
		start, okStart := NormalizeDate(m[1])
		end, okEnd := NormalizeDate(m[2])
		if okStart && okEnd {
			fields["statement_period"] = models.DateRange{Start: start, End: end}
		}
	}

	if v, ok := captureAmount(text, bankBalance); ok {
		fields["balance"] = v
	}
	if v, ok := captureName(text, bankHolder); ok {
		fields["account_holder"] = v
	}
}
