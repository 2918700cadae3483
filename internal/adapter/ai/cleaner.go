// Package ai provides model client adapters and wrappers used by the
// application: output cleaning, embedding caches, and provider selection.
package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ResponseCleaner repairs the common ways local models mangle a JSON reply:
// markdown fences, stray quotes, commentary around the object.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

// CleanJSONResponse cleans and sanitizes a JSON response from a model.
func (rc *ResponseCleaner) CleanJSONResponse(response string) string {
	response = rc.removeMarkdownBlocks(response)
	response = rc.extractJSON(response)
	response = rc.validateAndFixJSON(response)
	return response
}

// removeMarkdownBlocks strips ```json fences around the payload.
func (rc *ResponseCleaner) removeMarkdownBlocks(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// extractJSON pulls the first balanced {...} object out of mixed content.
func (rc *ResponseCleaner) extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}
	braceCount := 0
	end := start
	for i := start; i < len(response); i++ {
		if response[i] == '{' {
			braceCount++
		} else if response[i] == '}' {
			braceCount--
			if braceCount == 0 {
				end = i
				break
			}
		}
	}
	if end > start {
		return response[start : end+1]
	}
	return response
}

// validateAndFixJSON returns the input untouched when it already parses,
// otherwise applies the common-issue fixes.
func (rc *ResponseCleaner) validateAndFixJSON(response string) string {
	var tmp any
	if err := json.Unmarshal([]byte(response), &tmp); err == nil {
		return response
	}
	return rc.fixCommonJSONIssues(response)
}

var (
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	reBareKey       = regexp.MustCompile(`([{,]\s*)(\w+):`)
)

func (rc *ResponseCleaner) fixCommonJSONIssues(response string) string {
	response = reTrailingComma.ReplaceAllString(response, "$1")
	response = reBareKey.ReplaceAllString(response, `$1"$2":`)
	response = strings.ReplaceAll(response, "'", "\"")
	return response
}

// IsValidJSON checks if a string is valid JSON.
func (rc *ResponseCleaner) IsValidJSON(response string) bool {
	var tmp any
	return json.Unmarshal([]byte(response), &tmp) == nil
}
