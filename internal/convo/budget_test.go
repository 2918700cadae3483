package convo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history []string
		want    float64
		ok      bool
	}{
		{name: "under_k", history: []string{"I want a bike under 12k"}, want: 12000, ok: true},
		{name: "dollar_with_comma", history: []string{"My budget is $8,500"}, want: 8500, ok: true},
		{name: "budget_usd", history: []string{"Budget: 12000 USD"}, want: 12000, ok: true},
		{name: "up_to_k", history: []string{"Looking for something up to 9k"}, want: 9000, ok: true},
		{name: "upto_glued", history: []string{"upto 9k please"}, want: 9000, ok: true},
		{name: "lte_k", history: []string{"Budget <= 15k"}, want: 15000, ok: true},
		{name: "around_k", history: []string{"around 10k"}, want: 10000, ok: true},
		{name: "dollars_word", history: []string{"I have 12,000 dollars"}, want: 12000, ok: true},
		{name: "no_budget", history: []string{"No budget specified"}, ok: false},
		{name: "budget_bare", history: []string{"budget 7000"}, want: 7000, ok: true},
		{name: "range_upper_bound", history: []string{"range 5k-8k"}, want: 8000, ok: true},
		{name: "budget_range_upper_bound", history: []string{"budget 8k-12k"}, want: 12000, ok: true},
		{name: "approx_dot", history: []string{"approx. 4k"}, want: 4000, ok: true},
		{name: "approximately", history: []string{"approximately 6k"}, want: 6000, ok: true},
		{name: "at_most", history: []string{"at most $11,000"}, want: 11000, ok: true},
		{name: "maximum", history: []string{"maximum 9500 would work"}, ok: true, want: 9500},
		{name: "dollar_k_suffix", history: []string{"I can spend $8k"}, want: 8000, ok: true},
		{name: "across_messages", history: []string{"I want long-travel suspension", "Budget $8000"}, want: 8000, ok: true},
		{name: "empty_history", history: nil, ok: false},
		{name: "empty_strings", history: []string{"", "  "}, ok: false},
		{name: "plain_chatter", history: []string{"something comfortable for touring"}, ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractBudget(tt.history)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestExtractBudget_FirstDollarWins(t *testing.T) {
	t.Parallel()

	// Explicit dollar amounts take priority over later, looser phrasings.
	got, ok := ExtractBudget([]string{"I said $9,000 earlier", "maybe around 20k"})
	assert.True(t, ok)
	assert.InDelta(t, 9000, got, 1e-9)
}
