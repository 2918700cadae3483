package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

func rec(primary *domain.Pick, alts ...domain.Pick) *domain.Response {
	return &domain.Response{
		Type:         domain.ResponseRecommendation,
		Primary:      primary,
		Alternatives: alts,
	}
}

func TestValidateAndFilter_BudgetFilter(t *testing.T) {
	t.Parallel()

	history := []string{"I want long-travel suspension", "Budget $8000"}
	resp := rec(
		&domain.Pick{Brand: "KTM", Model: "390 Adventure", PriceEst: domain.Num(7000), Reason: "long-travel suspension on a budget"},
		domain.Pick{Brand: "KTM", Model: "790 Adventure", PriceEst: domain.Num(9000), Reason: "long-travel suspension, more power"},
	)

	out := ValidateAndFilter(resp, history)
	require.True(t, out.Accepted)
	require.NotNil(t, out.Response.Primary)
	assert.Equal(t, "390 Adventure", out.Response.Primary.Model)
	assert.Empty(t, out.Response.Alternatives)
}

func TestValidateAndFilter_UnknownPriceKept(t *testing.T) {
	t.Parallel()

	history := []string{"budget 8000"}
	resp := rec(&domain.Pick{Brand: "Honda", Model: "CB500X", PriceEst: domain.Number{Raw: "call dealer"}, Reason: "fits"})

	out := ValidateAndFilter(resp, history)
	require.True(t, out.Accepted)
	assert.NotNil(t, out.Response.Primary)
}

func TestValidateAndFilter_AllFilteredGetsNote(t *testing.T) {
	t.Parallel()

	history := []string{"my budget is $5,000"}
	resp := rec(
		&domain.Pick{Brand: "KTM", Model: "790 Adventure", PriceEst: domain.Num(9000)},
		domain.Pick{Brand: "BMW", Model: "R1250GS", PriceEst: domain.Num(18000)},
	)

	out := ValidateAndFilter(resp, history)
	require.True(t, out.Accepted)
	assert.Nil(t, out.Response.Primary)
	assert.Empty(t, out.Response.Alternatives)
	assert.Equal(t, "No items at or below the parsed budget $5000 found in dataset.", out.Response.Note)
}

func TestValidateAndFilter_ExistingNotePreserved(t *testing.T) {
	t.Parallel()

	resp := rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure", PriceEst: domain.Num(9000)})
	resp.Note = "already explained"

	out := ValidateAndFilter(resp, []string{"budget 5k"})
	require.True(t, out.Accepted)
	assert.Equal(t, "already explained", out.Response.Note)
}

func TestValidateAndFilter_MissingAttributeRetries(t *testing.T) {
	t.Parallel()

	history := []string{"I need long-travel suspension for offroad touring"}
	resp := rec(&domain.Pick{Brand: "Honda", Model: "Rebel 500", Reason: "comfortable seat", Evidence: "none"})

	out := ValidateAndFilter(resp, history)
	assert.False(t, out.Accepted)
	assert.Equal(t, domain.ValidationRetry, out.Action)
	assert.Equal(t, "suspension", out.Attribute)
	assert.NotEmpty(t, out.Reason)
}

func TestValidateAndFilter_AttributeInEvidencePasses(t *testing.T) {
	t.Parallel()

	history := []string{"soft suspension please"}
	resp := rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure", Reason: "great all-rounder", Evidence: "plush long-travel suspension"})

	out := ValidateAndFilter(resp, history)
	assert.True(t, out.Accepted)
}

func TestValidateAndFilter_NoPicksSkipsAttributeCheck(t *testing.T) {
	t.Parallel()

	// Budget removed everything; the attribute check must not demand a
	// mention from an empty pick list.
	history := []string{"long-travel suspension under $1,000"}
	resp := rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure", PriceEst: domain.Num(9000), Reason: "nope"})

	out := ValidateAndFilter(resp, history)
	require.True(t, out.Accepted)
	assert.Nil(t, out.Response.Primary)
	assert.NotEmpty(t, out.Response.Note)
}

func TestValidateAndFilter_ClarifyPassesThrough(t *testing.T) {
	t.Parallel()

	resp := &domain.Response{Type: domain.ResponseClarify, Question: "What is your budget?"}
	out := ValidateAndFilter(resp, []string{"suspension"})
	require.True(t, out.Accepted)
	assert.Equal(t, "What is your budget?", out.Response.Question)
}

func TestValidateAndFilter_Reject(t *testing.T) {
	t.Parallel()

	out := ValidateAndFilter(nil, nil)
	assert.False(t, out.Accepted)
	assert.Equal(t, domain.ValidationReject, out.Action)

	out = ValidateAndFilter(&domain.Response{Type: "noise"}, nil)
	assert.False(t, out.Accepted)
	assert.Equal(t, domain.ValidationReject, out.Action)
}
