// Package catalog loads the motorcycle review dataset from CSV and derives
// the metadata fields (price, engine size, suspension notes, ride type) that
// evidence enrichment and prompt building rely on.
package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	rePriceDollar = regexp.MustCompile(`\$\s*([0-9,]+(?:\.\d+)?)`)
	rePriceKilo   = regexp.MustCompile(`(?i)([0-9,]+(?:\.\d+)?)\s*k\b`)
	rePricePlain  = regexp.MustCompile(`\b([0-9]{3,6})(?:\.[0-9]+)?\b`)
	reEngineCC    = regexp.MustCompile(`(?i)(\d{2,4})\s?cc\b`)
)

// ParsePrice pulls a dollar amount out of free text: "$12,000", "12k", or a
// plain 3-6 digit number. Returns ok=false when nothing parses.
func ParsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if m := rePriceDollar.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			return v, true
		}
		return 0, false
	}
	if m := rePriceKilo.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			return v * 1000, true
		}
		return 0, false
	}
	if m := rePricePlain.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// ParseEngineCC pulls an engine displacement like "650cc" or "650 cc".
func ParseEngineCC(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if m := reEngineCC.FindStringSubmatch(s); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v, true
		}
	}
	return 0, false
}

var suspensionKeywords = []string{
	"suspension", "travel", "long-travel", "long travel",
	"damping", "firm", "plush", "soft", "wp", "showa",
	"fork travel",
}

// ExtractSuspensionNotes returns a comma-joined, sorted list of suspension
// keywords found in the text, or "" when none appear.
func ExtractSuspensionNotes(s string) string {
	if s == "" {
		return ""
	}
	text := strings.ToLower(s)
	var found []string
	for _, k := range suspensionKeywords {
		if strings.Contains(text, k) {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.Strings(found)
	return strings.Join(found, ", ")
}

var rideTypes = []string{
	"adventure", "touring", "cruiser", "sport",
	"offroad", "dual-sport", "enduro", "supermoto",
}

// ExtractRideType returns the first ride-type keyword found in the text.
func ExtractRideType(s string) string {
	text := strings.ToLower(s)
	for _, t := range rideTypes {
		if strings.Contains(text, t) {
			return t
		}
	}
	return ""
}
