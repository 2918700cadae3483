package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

func TestEnrichPicks_SuspensionNotesWin(t *testing.T) {
	t.Parallel()

	catalog := []domain.CatalogItem{
		{Brand: "KTM", Model: "790-Adventure", Year: 2023, SuspensionNotes: "long-travel, plush", EngineCC: 799},
	}
	resp := rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure", Evidence: ""})

	got := EnrichPicks(resp, catalog)
	require.NotNil(t, got.Primary)
	assert.Equal(t, "long-travel, plush", got.Primary.Evidence)
	assert.Equal(t, "suspension_notes", got.Primary.EvidenceSource)
}

func TestEnrichPicks_FieldPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		item       domain.CatalogItem
		evidence   string
		source     string
	}{
		{
			name:     "engine_cc",
			item:     domain.CatalogItem{Brand: "KTM", Model: "390 Adventure", EngineCC: 373, RideType: "adventure"},
			evidence: "373 cc",
			source:   "engine_cc",
		},
		{
			name:     "ride_type",
			item:     domain.CatalogItem{Brand: "KTM", Model: "390 Adventure", RideType: "adventure", PriceUSDEstimate: 7000},
			evidence: "adventure",
			source:   "ride_type",
		},
		{
			name:     "price",
			item:     domain.CatalogItem{Brand: "KTM", Model: "390 Adventure", PriceUSDEstimate: 7000, Comment: "good bike"},
			evidence: "Price est $7000",
			source:   "price_usd_estimate",
		},
		{
			name:     "comment",
			item:     domain.CatalogItem{Brand: "KTM", Model: "390 Adventure", Comment: "good bike"},
			evidence: "good bike",
			source:   "comment",
		},
		{
			name:     "text",
			item:     domain.CatalogItem{Brand: "KTM", Model: "390 Adventure", Text: "owner review text"},
			evidence: "owner review text",
			source:   "text",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := rec(&domain.Pick{Brand: "KTM", Model: "390 Adventure", Evidence: "n/a"})
			got := EnrichPicks(resp, []domain.CatalogItem{tt.item})
			assert.Equal(t, tt.evidence, got.Primary.Evidence)
			assert.Equal(t, tt.source, got.Primary.EvidenceSource)
		})
	}
}

func TestEnrichPicks_NoMatchGetsSentinel(t *testing.T) {
	t.Parallel()

	catalog := []domain.CatalogItem{
		{Brand: "KTM", Model: "790-Adventure", SuspensionNotes: "plush"},
		{Brand: "BMW", Model: "R1250GS"},
	}
	resp := rec(&domain.Pick{Brand: "Ducati", Model: "Panigale V4", Evidence: "none"})

	got := EnrichPicks(resp, catalog)
	assert.Equal(t, domain.NoEvidenceSentinel, got.Primary.Evidence)
	assert.Empty(t, got.Primary.EvidenceSource)
}

func TestEnrichPicks_GenuineEvidenceUntouched(t *testing.T) {
	t.Parallel()

	catalog := []domain.CatalogItem{
		{Brand: "KTM", Model: "790-Adventure", SuspensionNotes: "plush"},
	}
	resp := rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure", Evidence: "dealer spec sheet", EvidenceSource: "comment"})

	got := EnrichPicks(resp, catalog)
	assert.Equal(t, "dealer spec sheet", got.Primary.Evidence)
	assert.Equal(t, "comment", got.Primary.EvidenceSource)
}

func TestEnrichPicks_AllSentinelSpellingsEligible(t *testing.T) {
	t.Parallel()

	catalog := []domain.CatalogItem{
		{Brand: "KTM", Model: "790-Adventure", SuspensionNotes: "plush"},
	}
	for _, sentinel := range []string{"", "none", "NONE", "None In Dataset", "n/a", "NA", "  na  "} {
		resp := rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure", Evidence: sentinel})
		got := EnrichPicks(resp, catalog)
		assert.Equal(t, "plush", got.Primary.Evidence, "sentinel %q", sentinel)
	}
}

func TestEnrichPicks_LongTextTruncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)
	catalog := []domain.CatalogItem{{Brand: "KTM", Model: "790-Adventure", Comment: long}}
	resp := rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure"})

	got := EnrichPicks(resp, catalog)
	assert.Len(t, got.Primary.Evidence, 200)

	// Truncation counts runes, never splitting a multi-byte character.
	catalog[0].Comment = strings.Repeat("ö", 500)
	got = EnrichPicks(rec(&domain.Pick{Brand: "KTM", Model: "790 Adventure"}), catalog)
	assert.Equal(t, 200, utf8.RuneCountInString(got.Primary.Evidence))
	assert.True(t, utf8.ValidString(got.Primary.Evidence))
}

func TestEnrichPicks_CoversAlternatives(t *testing.T) {
	t.Parallel()

	catalog := []domain.CatalogItem{
		{Brand: "KTM", Model: "790-Adventure", SuspensionNotes: "plush"},
		{Brand: "BMW", Model: "R1250GS", RideType: "touring"},
	}
	resp := rec(
		&domain.Pick{Brand: "KTM", Model: "790 Adventure"},
		domain.Pick{Brand: "BMW", Model: "R1250GS"},
		domain.Pick{Brand: "Ducati", Model: "Panigale V4"},
	)

	got := EnrichPicks(resp, catalog)
	assert.Equal(t, "plush", got.Primary.Evidence)
	assert.Equal(t, "touring", got.Alternatives[0].Evidence)
	assert.Equal(t, domain.NoEvidenceSentinel, got.Alternatives[1].Evidence)

	// Evidence is never left empty once enrichment has run.
	for _, p := range got.Picks() {
		assert.NotEmpty(t, p.Evidence)
	}
}

func TestEnrichPicks_ClarifyUnchanged(t *testing.T) {
	t.Parallel()

	resp := &domain.Response{Type: domain.ResponseClarify, Question: "Budget?"}
	got := EnrichPicks(resp, nil)
	assert.Equal(t, resp, got)
}
