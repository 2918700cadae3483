// Package mock provides a deterministic offline model client for tests and
// demos. It parses the prompt sections the way a cooperative model would and
// answers with schema-correct JSON.
package mock

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/danielgaio/moto-advisor/internal/convo"
	"github.com/danielgaio/moto-advisor/internal/domain"
)

// Client implements domain.ModelClient and domain.Embedder deterministically.
type Client struct{}

// New constructs the mock client.
func New() *Client { return &Client{} }

// Embed returns a deterministic vector of size 768 for each input text.
func (c *Client) Embed(_ context.Context, texts []string) ([][]float32, error) {
	const dims = 768
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedDeterministic(t, dims)
	}
	return out, nil
}

// reviewLine matches the item summaries the prompt builder emits.
var reviewLine = regexp.MustCompile(`^- (\S+) (.+?) \((\d+)\): `)

type promptItem struct {
	brand, model string
	year         int
	price        int
	evidence     string
}

// Invoke parses the prompt's CONVERSATION and REVIEWS sections and builds a
// recommendation that respects the stated budget and mentions the user's
// focus attribute. With no usable reviews it asks a clarifying question.
func (c *Client) Invoke(_ context.Context, prompt string) (string, error) {
	conversation := segment(prompt, "CONVERSATION:", "REVIEWS:")
	reviews := segment(prompt, "REVIEWS:", "USER FOCUS:")

	history := parseConversation(conversation)
	items := parseReviews(reviews)

	budget, hasBudget := convo.ExtractBudget(history)
	// Most recent mention wins, but older messages still count: the mock
	// should keep honoring an attribute stated before a budget follow-up.
	attr, hasAttr := "", false
	for i := len(history) - 1; i >= 0 && !hasAttr; i-- {
		attr, hasAttr = convo.ExtractPrioritizedAttribute(history[i : i+1])
	}

	var eligible []promptItem
	for _, it := range items {
		if hasBudget && it.price > 0 && float64(it.price) > budget {
			continue
		}
		eligible = append(eligible, it)
	}

	if len(eligible) == 0 {
		if len(items) == 0 {
			return `{"type":"clarify","question":"What type of riding and budget do you have in mind?"}`, nil
		}
		note := "No items at or below the stated budget found in dataset."
		return fmt.Sprintf(`{"type":"recommendation","primary":null,"alternatives":[],"note":%q}`, note), nil
	}

	reason := "best overall fit for your needs"
	if hasAttr {
		reason = "strong " + attr + " for the price"
	}

	picks := make([]map[string]any, 0, 3)
	for i, it := range eligible {
		if i == 3 {
			break
		}
		picks = append(picks, map[string]any{
			"brand":     it.brand,
			"model":     it.model,
			"year":      it.year,
			"price_est": it.price,
			"reason":    reason,
			"evidence":  it.evidence,
		})
	}

	payload := map[string]any{
		"type":         "recommendation",
		"primary":      picks[0],
		"alternatives": picks[1:],
		"note":         "",
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=mock.Invoke: %w", err)
	}
	return string(b), nil
}

func parseConversation(block string) []string {
	var history []string
	for _, ln := range strings.Split(block, "\n") {
		ln = strings.TrimSpace(ln)
		if msg, ok := strings.CutPrefix(ln, "User: "); ok {
			history = append(history, msg)
		}
	}
	return history
}

func parseReviews(block string) []promptItem {
	var items []promptItem
	for _, ln := range strings.Split(block, "\n") {
		ln = strings.TrimSpace(ln)
		m := reviewLine.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		it := promptItem{brand: m[1], model: m[2]}
		fmt.Sscanf(m[3], "%d", &it.year)
		for _, part := range strings.Split(ln, " | ") {
			part = strings.TrimSpace(part)
			if v, ok := strings.CutPrefix(part, "Price est: $"); ok {
				fmt.Sscanf(v, "%d", &it.price)
			}
			if v, ok := strings.CutPrefix(part, "Suspension notes: "); ok {
				it.evidence = v
			}
		}
		items = append(items, it)
	}
	return items
}

func segment(s, startMarker, nextMarker string) string {
	i := strings.Index(s, startMarker)
	if i == -1 {
		return ""
	}
	s2 := s[i+len(startMarker):]
	j := strings.Index(s2, nextMarker)
	if j == -1 {
		return strings.TrimSpace(s2)
	}
	return strings.TrimSpace(s2[:j])
}

func embedDeterministic(s string, dims int) []float32 {
	// Simple LCG seeded by sha1(s).
	h := sha1.Sum([]byte(s))
	x := binary.BigEndian.Uint32(h[:4])
	const a = 1664525
	const c = 1013904223
	vec := make([]float32, dims)
	for i := 0; i < dims; i++ {
		x = uint32(uint64(a)*uint64(x) + uint64(c))
		v := float32(x) / float32(^uint32(0))
		vec[i] = 2*v - 1
	}
	return vec
}

var _ domain.ModelClient = (*Client)(nil)
var _ domain.Embedder = (*Client)(nil)
