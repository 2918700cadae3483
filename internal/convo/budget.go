// Package convo extracts structured signals (budget, prioritized attribute,
// retrieval query) from free-text conversation history.
package convo

import (
	"regexp"
	"strconv"
	"strings"
)

// Budget patterns, in priority order. Earlier patterns are more explicit and
// win over the permissive fallbacks. Several patterns carry an optional range
// tail so "budget 8k-12k" resolves to the upper bound instead of stopping at
// the first number.
const (
	numPat  = `([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k?)`
	tailPat = `(?:\s*(?:-|–|to|and)\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k?))?`
)

var (
	reDollar       = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	reBudgetKw     = regexp.MustCompile(`budget:?\s*(?:is\s+|of\s+)?\$?\s*` + numPat + `\b` + tailPat)
	reComparator   = regexp.MustCompile(`(?:under|less\s+than|below|up\s*to|at\s+most|max(?:imum)?|<=|<)\s*\$?\s*` + numPat + `\b` + tailPat)
	reApprox       = regexp.MustCompile(`(?:around|about|approx(?:imately)?\.?)\s*\$?\s*` + numPat + `\b` + tailPat)
	reRange        = regexp.MustCompile(numPat + `\s*(?:-|–|to|and)\s*\$?\s*` + numPat + `\b`)
	reCurrencyWord = regexp.MustCompile(`\b([0-9][0-9,]*(?:\.[0-9]+)?)\s*(?:usd|dollars)\b`)
	reTrailingK    = regexp.MustCompile(`\b([0-9][0-9,]*(?:\.[0-9]+)?)\s*k\b`)
	reBudgetBare   = regexp.MustCompile(`budget:?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
)

// ExtractBudget scans the joined conversation history for a dollar ceiling.
// Ranges resolve to their upper bound; a trailing "k" multiplies by 1000.
// Returns ok=false when no pattern matches or the number fails to parse.
func ExtractBudget(history []string) (float64, bool) {
	joined := strings.ToLower(strings.Join(history, " "))
	if strings.TrimSpace(joined) == "" {
		return 0, false
	}

	// 1. Explicit $<number>. A k suffix means the amount belongs to one of
	// the suffix-aware patterns below, not this one.
	for _, m := range reDollar.FindAllStringSubmatchIndex(joined, -1) {
		end := m[3]
		if end < len(joined) && joined[end] == 'k' {
			continue
		}
		if v, ok := parseAmount(joined[m[2]:m[3]], false); ok {
			return v, true
		}
	}
	// 2. "budget" keyword with optional currency markers.
	if v, ok := matchAmount(reBudgetKw, joined); ok {
		return v, true
	}
	// 3. Comparator phrases: under / up to / at most / <= ...
	if v, ok := matchAmount(reComparator, joined); ok {
		return v, true
	}
	// 4. Approximations: around / about / approx.
	if v, ok := matchAmount(reApprox, joined); ok {
		return v, true
	}
	// 5. Bare ranges resolve to the upper bound.
	if m := reRange.FindStringSubmatch(joined); m != nil {
		if v, ok := parseAmount(m[3], m[4] != ""); ok {
			return v, true
		}
	}
	// 6. Bare number followed by a currency word.
	if m := reCurrencyWord.FindStringSubmatch(joined); m != nil {
		if v, ok := parseAmount(m[1], false); ok {
			return v, true
		}
	}
	// 7. Trailing k with no other context.
	if m := reTrailingK.FindStringSubmatch(joined); m != nil {
		if v, ok := parseAmount(m[1], true); ok {
			return v, true
		}
	}
	// 8. Fallback: "budget" followed by a bare number.
	if m := reBudgetBare.FindStringSubmatch(joined); m != nil {
		if v, ok := parseAmount(m[1], false); ok {
			return v, true
		}
	}
	return 0, false
}

// matchAmount applies a pattern built with numPat+tailPat. When the optional
// range tail matched, the upper bound wins.
func matchAmount(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	num, kilo := m[1], m[2]
	if len(m) >= 5 && m[3] != "" {
		num, kilo = m[3], m[4]
	}
	return parseAmount(num, kilo != "")
}

func parseAmount(num string, kilo bool) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if kilo {
		v *= 1000
	}
	return v, true
}
