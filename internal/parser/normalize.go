package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dayFirstDate = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`)
	isoDate      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// NormalizeDate 将 DD/MM/YYYY 及其分隔符变体归一化为 YYYY-MM-DD
//
// Already-ISO input passes through. The result is validated as a real
// calendar date; anything else reports false.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	var normalized string
	if m := dayFirstDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		normalized = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	} else if isoDate.MatchString(s) {
		normalized = s
	} else {
		return "", false
	}

	if _, err := time.Parse("2006-01-02", normalized); err != nil {
		return "", false
	}
	return normalized, true
}

// NormalizeAmount 去掉千分位分隔符并把小数分隔符统一为点
//
// Handles the usual OCR shapes: "1 234,56", "1.234,56", "1,234.56",
// "1234.56", "1234" plus stray currency symbols.
func NormalizeAmount(raw string) (float64, bool) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', '€', '$', '£':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		// The later separator is the decimal one.
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		// A lone comma with 1-2 trailing digits is a decimal comma,
		// otherwise commas group thousands.
		if strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-dot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
