package convo

import "strings"

// attributeKeywords is the fixed priority list for the prioritized-attribute
// check. Order matters: when a message mentions several, the earliest entry
// wins ("suspension" beats "offroad"). Matching is substring containment, so
// "comfortable" satisfies "comfort".
var attributeKeywords = []string{
	"suspension", "long-travel", "long travel", "travel",
	"soft", "firm", "damping", "offroad", "touring",
	"traveling", "comfort",
}

// ExtractPrioritizedAttribute returns the attribute the user most recently
// emphasized. Only the last message is examined: the newest ask wins over
// anything said earlier.
func ExtractPrioritizedAttribute(history []string) (string, bool) {
	if len(history) == 0 {
		return "", false
	}
	last := strings.ToLower(history[len(history)-1])
	for _, k := range attributeKeywords {
		if strings.Contains(last, k) {
			return k, true
		}
	}
	return "", false
}
