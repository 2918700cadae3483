package usecase

import (
	"fmt"
	"strings"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

const systemInstructions = `You are an expert motorcycle recommender. The user will provide one or more messages describing preferences.
Always analyze the user's messages, decide if you have enough information to recommend motorcycles from the provided dataset, or ask a single clear follow-up question to clarify missing information.
When recommending, strictly enforce numeric budget constraints when provided: exclude any motorcycle whose listed price exceeds the user's stated budget. If nothing in the dataset strictly matches the budget, explicitly say so and suggest the closest alternatives under the budget or advise on raising the budget.
Respect explicit constraints (budget, cylinder count, riding style, experience), and explain why each recommended motorcycle matches the user's preferences.
If you need more information, ask exactly one short clarifying question. Otherwise, recommend motorcycles from the dataset and explain your reasoning.

Priority and concision guidance:
- If the user's most recent message requests a specific attribute (for example 'big suspension'), prioritize that attribute above all others when selecting and ranking motorcycles.
- For each pick include a short, attribute-focused reason (max 12 words) in the 'reason' field, and include an 'evidence' field (one short phrase) if the reviews or specs mention the attribute; if none, set 'evidence' to "none in dataset".
- Return exactly one JSON object following the prescribed shapes. Keep reasons concise and focused on the prioritized attribute.
- Prefer explicit metadata fields from the REVIEWS when present (suspension_notes, engine_cc, ride_type, price_usd_estimate) as authoritative evidence; cite those fields in 'evidence' when they support the pick.

RESPONSE FORMAT (REQUIRED): Return a single JSON object only (no surrounding text). The object must be one of two shapes:

1) Clarifying question:
    {"type": "clarify", "question": "<one short question the assistant needs>"}

2) Recommendation:
    {"type": "recommendation", "primary": {"brand": "", "model": "", "year": 0, "price_est": 0, "reason": "", "evidence": ""}, "alternatives": [...up to 2 items of the same shape], "note": "optional free-text note if nothing strictly matches budget"}

Strict rules:
- Return exactly one JSON object and nothing else (no extra commentary). The client will parse this JSON. Follow the shapes above precisely.
- When recommending, select ONE primary pick that best matches the user's needs, plus up to 2 alternatives that offer different trade-offs or price points.
- Only include items whose numeric price_est is <= the user's stated budget (if budget provided). If none match, set "primary": null and "alternatives": [] and include an explanatory "note".`

// BuildPrompt assembles the full model prompt: system instructions, the
// conversation so far, summaries of the retrieved catalog items, and a focus
// hint taken from the most recent message.
func BuildPrompt(history []string, items []domain.CatalogItem) string {
	var convoLines []string
	for _, m := range history {
		convoLines = append(convoLines, "User: "+m)
	}

	var reviewLines []string
	for i := range items {
		reviewLines = append(reviewLines, summarizeItem(&items[i]))
	}

	focus := ""
	if len(history) > 0 {
		focus = history[len(history)-1]
	}

	var b strings.Builder
	b.WriteString("SYSTEM:\n")
	b.WriteString(systemInstructions)
	b.WriteString("\n\nCONVERSATION:\n")
	b.WriteString(strings.Join(convoLines, "\n"))
	b.WriteString("\n\nREVIEWS:\n")
	b.WriteString(strings.Join(reviewLines, "\n"))
	b.WriteString("\n\nUSER FOCUS: ")
	b.WriteString(focus)
	b.WriteString(" -- prioritize this attribute when selecting the primary pick and alternatives.\n\n")
	b.WriteString("TASK: Based on the conversation above, either ask one short clarifying question (if you need more info) ")
	b.WriteString("or recommend motorcycles from the REVIEWS with one primary pick and up to 2 alternatives. ")
	b.WriteString("Be explicit about why each pick matches.\n")
	b.WriteString(`If you cannot find direct evidence for the prioritized attribute inside the provided REVIEWS or metadata for a pick, set that pick's evidence to the literal string 'none in dataset'.` + "\n")
	b.WriteString("Prefer suspension_notes and engine_cc fields from REVIEWS as primary evidence when available; use comment text only as secondary support.\n")
	return b.String()
}

func summarizeItem(it *domain.CatalogItem) string {
	parts := []string{fmt.Sprintf("- %s %s (%d): %s", it.Brand, it.Model, it.Year, it.FullText())}
	if it.PriceUSDEstimate > 0 {
		parts = append(parts, fmt.Sprintf("Price est: $%d", it.PriceUSDEstimate))
	}
	if it.SuspensionNotes != "" {
		parts = append(parts, "Suspension notes: "+it.SuspensionNotes)
	}
	if it.EngineCC > 0 {
		parts = append(parts, fmt.Sprintf("Engine (cc): %d", it.EngineCC))
	}
	if it.RideType != "" {
		parts = append(parts, "Ride type: "+it.RideType)
	}
	return strings.Join(parts, " | ")
}

// AppendRetryInstruction adds the corrective follow-up block sent on the one
// permitted retry after a failed attribute check.
func AppendRetryInstruction(prompt, attribute string) string {
	if attribute == "" {
		attribute = "the prioritized attribute"
	}
	msg := "Previous response did not mention the prioritized attribute in any pick. " +
		"Please return the SAME JSON schema again, ensuring each pick.reason " +
		fmt.Sprintf("(<=12 words) mentions '%s' ", attribute) +
		"or set evidence to 'none in dataset'. Also strictly enforce numeric " +
		"budget constraints if a budget was provided."
	return prompt + "\n\nRETRY_INSTRUCTION: " + msg
}
