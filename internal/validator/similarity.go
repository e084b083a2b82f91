package validator

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Similarity 返回两个字符串的归一化 Levenshtein 相似度
//
// Compared lower-cased and trimmed; the score is
// (maxLen - editDistance) / maxLen in [0,1]. Two empty strings are
// trivially identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	ra := []rune(a)
	rb := []rune(b)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.Distance(a, b, nil)
	return float64(maxLen-dist) / float64(maxLen)
}
