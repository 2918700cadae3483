// Package usecase holds the conversation pipeline: validation, evidence
// enrichment, prompt construction, turn orchestration, and reply formatting.
package usecase

import (
	"strings"
	"unicode"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

// matchFloor is the minimum combined score for a catalog item to count as
// evidence for a pick. Below it the item is treated as not in the dataset.
const matchFloor = 0.6

// normalizeAggressive flattens a name for fuzzy comparison: lowercase,
// hyphens to spaces, punctuation stripped, whitespace collapsed, and the
// articles "the", "a", "an" removed.
func normalizeAggressive(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		if f == "the" || f == "a" || f == "an" {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// fuzzyMatchScore compares two already-normalized strings and returns a
// score in [0,1]. Layers, strongest first: exact match, substring
// containment, token overlap, and finally character-level edit distance.
func fuzzyMatchScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}
	if j := tokenJaccard(a, b); j > 0.5 {
		// Map (0.5,1.0] linearly onto (0.7,0.9].
		return 0.7 + (j-0.5)*0.4
	}
	return editDistanceRatio(a, b)
}

func tokenJaccard(a, b string) float64 {
	as := make(map[string]struct{})
	for _, t := range strings.Fields(a) {
		as[t] = struct{}{}
	}
	bs := make(map[string]struct{})
	for _, t := range strings.Fields(b) {
		bs[t] = struct{}{}
	}
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for t := range as {
		if _, ok := bs[t]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

// editDistanceRatio returns 1 - levenshtein/maxLen, clamped at 0.
func editDistanceRatio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	d := levenshtein(a, b)
	r := 1 - float64(d)/float64(maxLen)
	if r < 0 {
		return 0
	}
	return r
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// FindBestMatch locates the catalog item that best matches a pick's brand,
// model, and year. Field scores combine with weights that shift depending on
// which fields the pick actually carries; anything under the floor returns
// no match.
func FindBestMatch(pick *domain.Pick, items []domain.CatalogItem) (*domain.CatalogItem, float64) {
	brand := normalizeAggressive(pick.Brand)
	model := normalizeAggressive(pick.Model)
	year, hasYear := 0, false
	if pick.Year.Valid {
		year, hasYear = int(pick.Year.Value), true
	}
	if brand == "" && model == "" {
		return nil, 0
	}

	var best *domain.CatalogItem
	bestScore := 0.0
	for i := range items {
		it := &items[i]
		score := combinedScore(brand, model, year, hasYear, it)
		if score > bestScore {
			best, bestScore = it, score
		}
	}
	if bestScore < matchFloor {
		return nil, bestScore
	}
	return best, bestScore
}

func combinedScore(brand, model string, year int, hasYear bool, it *domain.CatalogItem) float64 {
	itBrand := normalizeAggressive(it.Brand)
	itModel := normalizeAggressive(it.Model)

	// The year term only participates when both the pick and the item carry
	// a year; otherwise its weight is redistributed to the text fields so an
	// item without a recorded year is not penalized.
	compareYear := hasYear && it.Year != 0
	yearScore := 0.0
	if compareYear && it.Year == year {
		yearScore = 1.0
	}

	switch {
	case brand != "" && model != "":
		bs := fuzzyMatchScore(brand, itBrand)
		ms := fuzzyMatchScore(model, itModel)
		if compareYear {
			return 0.5*ms + 0.35*bs + 0.15*yearScore
		}
		return 0.575*ms + 0.425*bs
	case model != "":
		ms := fuzzyMatchScore(model, itModel)
		if compareYear {
			return 0.85*ms + 0.15*yearScore
		}
		return 0.85 * ms
	default:
		bs := fuzzyMatchScore(brand, itBrand)
		if compareYear {
			return 0.7*bs + 0.3*yearScore
		}
		return 0.7 * bs
	}
}
