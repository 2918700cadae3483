package convo

import (
	"regexp"
	"strings"
)

// DefaultMaxQueryWords caps the retrieval query length.
const DefaultMaxQueryWords = 12

var (
	reToken      = regexp.MustCompile(`[A-Za-z0-9\-']+`)
	reQueryToken = regexp.MustCompile(`[0-9]+cc|[a-zA-Z0-9\-]+`)
	reDigits     = regexp.MustCompile(`^\d+$`)
)

var vagueStopwords = map[string]struct{}{
	"i": {}, "want": {}, "need": {}, "for": {}, "the": {}, "and": {}, "a": {},
	"an": {}, "to": {}, "with": {}, "that": {}, "is": {}, "on": {}, "in": {},
	"of": {}, "my": {}, "me": {}, "it": {}, "are": {}, "please": {},
	"would": {}, "like": {}, "looking": {}, "who": {}, "how": {}, "what": {},
	"your": {}, "you": {}, "we": {},
}

var greetings = []string{
	"hi", "hello", "hey", "how are you", "how's it going",
	"what's up", "how are ya", "how r u", "good morning",
	"good afternoon", "good evening",
}

var substantiveTokens = []string{
	"suspension", "travel", "long-travel", "long travel",
	"budget", "touring", "adventure", "engine", "cc", "price",
}

// queryAttributes and rideTypes are promoted to the front of extracted
// queries so retrieval favors what the user actually asked about.
var queryAttributes = []string{
	"long-travel", "long travel", "suspension", "travel",
	"damping", "soft", "firm", "comfortable", "comfort",
	"fork", "shock",
}

var rideTypes = []string{
	"adventure", "touring", "cruiser", "sport",
	"offroad", "dual-sport", "enduro", "supermoto",
}

// IsVagueInput reports whether a message is a greeting or otherwise carries
// too little substance to retrieve against.
func IsVagueInput(text string) bool {
	low := strings.ToLower(strings.TrimSpace(text))
	if low == "" {
		return true
	}
	for _, a := range substantiveTokens {
		if strings.Contains(low, a) {
			return false
		}
	}
	for _, g := range greetings {
		if low == g || strings.HasPrefix(low, g+" ") || strings.HasSuffix(low, " "+g) {
			return true
		}
		if strings.Contains(low, g) && len(strings.Fields(low)) <= 4 {
			return true
		}
	}
	tokens := reToken.FindAllString(low, -1)
	if len(tokens) == 0 {
		return true
	}
	informative := 0
	for _, t := range tokens {
		if _, stop := vagueStopwords[t]; !stop && len(t) > 2 {
			informative++
		}
	}
	return informative < 2
}

// GenerateRetrieverQuery builds a short focused query from the most recent
// message. The bool mirrors the original contract and reports that the
// deterministic keyword fallback was used.
func GenerateRetrieverQuery(history []string) (string, bool) {
	if len(history) == 0 {
		return "", true
	}
	q := KeywordExtractQuery(history[len(history)-1], DefaultMaxQueryWords)
	return q, true
}

// KeywordExtractQuery pulls the informative tokens out of a message,
// promoting attribute and ride-type keywords to the front, and caps the
// result at maxWords. Returns "" when nothing informative remains.
func KeywordExtractQuery(message string, maxWords int) string {
	if message == "" {
		return ""
	}
	if maxWords <= 0 {
		maxWords = DefaultMaxQueryWords
	}
	msg := strings.ToLower(message)
	var seen []string
	has := func(s string) bool {
		for _, v := range seen {
			if v == s {
				return true
			}
		}
		return false
	}
	for _, k := range append(append([]string{}, queryAttributes...), rideTypes...) {
		if strings.Contains(msg, k) && !has(k) {
			seen = append(seen, k)
		}
	}
	for _, t := range reQueryToken.FindAllString(msg, -1) {
		t = strings.TrimSpace(t)
		if t == "" || has(t) {
			continue
		}
		if _, stop := vagueStopwords[t]; stop {
			continue
		}
		// Bare numbers are noise unless they carry a cc suffix.
		if reDigits.MatchString(t) {
			continue
		}
		if len(t) <= 2 {
			continue
		}
		seen = append(seen, t)
	}
	if len(seen) == 0 {
		return ""
	}
	if len(seen) > maxWords {
		seen = seen[:maxWords]
	}
	return strings.Join(seen, " ")
}

// spellCorrections fixes the handful of domain typos that reliably show up
// in user messages and would otherwise defeat keyword matching.
var spellCorrections = map[string]string{
	"suspention": "suspension",
	"longtravel": "long-travel",
	"travle":     "travel",
	"dampning":   "damping",
}

// SimpleSpellCorrect applies the fixed correction table, preserving a
// capitalized first letter.
func SimpleSpellCorrect(text string) string {
	if text == "" {
		return text
	}
	out := text
	for typo, fix := range spellCorrections {
		out = strings.ReplaceAll(out, typo, fix)
		out = strings.ReplaceAll(out, strings.ToUpper(typo[:1])+typo[1:], fix)
	}
	return out
}
