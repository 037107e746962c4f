package discovery

import (
	"strings"
	"unicode"
)

// Similarity scores how alike two market titles are, as a token-overlap
// ratio in [0, 1]. Case- and punctuation-insensitive, symmetric, and
// similarity(x, x) = 1.0 for non-empty x, per §8's Title-matching property.
// This is the only piece of the out-of-core discovery pipeline the
// specification treats as load-bearing; ranking, liquidity filtering, and
// re-querying are explicitly out of scope and not implemented here.
func Similarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}

	union := len(ta)
	for tok := range tb {
		if !ta[tok] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	lower := strings.ToLower(s)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
