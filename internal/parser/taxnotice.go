package parser

import (
	"regexp"
	"strconv"

	"github.com/locapass/docverify/internal/models"
)

var (
	taxFiscalYear   = regexp.MustCompile(`(?i)(?:revenus de l'année|année des revenus|avis d'imp[oô]t(?: sur les revenus)?|tax year|income year)\s*[:.]?\s*(\d{4})`)
	taxpayerName    = regexp.MustCompile(`(?i)(?:d[ée]clarant(?: 1)?|nom du contribuable|taxpayer)\s*[:.]?\s*([\p{L}' -]+)`)
	taxRevenue      = regexp.MustCompile(`(?i)(?:revenu fiscal de r[ée]f[ée]rence|revenu imposable|annual revenue|reference income)\s*[:.]?\s*([\d .,\x{00a0}\x{202f}]+)`)
	taxParts        = regexp.MustCompile(`(?i)(?:nombre de parts|parts du foyer|tax parts)\s*[:.]?\s*(\d+(?:[.,]\d+)?)`)
	taxYearFallback = regexp.MustCompile(`\b(20\d{2})\b`)
)

func parseTaxNotice(text string, fields models.FieldMap) {
	if m := taxFiscalYear.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			fields["fiscal_year"] = float64(year)
		}
	} else if m := taxYearFallback.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			fields["fiscal_year"] = float64(year)
		}
	}

	if v, ok := captureName(text, taxpayerName); ok {
		fields["taxpayer_name"] = v
	}
	if v, ok := captureAmount(text, taxRevenue); ok {
		fields["annual_revenue"] = v
	}
	if v, ok := captureAmount(text, taxParts); ok {
		fields["tax_parts"] = v
	}
}
