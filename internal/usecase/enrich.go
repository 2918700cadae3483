package usecase

import (
	"fmt"
	"strings"

	"github.com/danielgaio/moto-advisor/internal/domain"
	"github.com/danielgaio/moto-advisor/pkg/textx"
)

// noEvidenceSentinels are the evidence values that count as "missing" and
// make a pick eligible for enrichment.
var noEvidenceSentinels = map[string]struct{}{
	"":                {},
	"none":            {},
	"none in dataset": {},
	"n/a":             {},
	"na":              {},
}

func needsEvidence(evidence string) bool {
	_, ok := noEvidenceSentinels[strings.ToLower(strings.TrimSpace(evidence))]
	return ok
}

// EnrichPicks fills in missing evidence on every pick by fuzzy-matching the
// pick against the retrieved catalog items. Genuine evidence is never
// overwritten; picks with no acceptable match get the "none in dataset"
// sentinel. Enrichment is best-effort and never fails.
func EnrichPicks(resp *domain.Response, items []domain.CatalogItem) *domain.Response {
	if resp == nil || resp.Type != domain.ResponseRecommendation {
		return resp
	}
	for _, p := range resp.Picks() {
		if !needsEvidence(p.Evidence) {
			continue
		}
		match, _ := FindBestMatch(p, items)
		if match == nil {
			p.Evidence = domain.NoEvidenceSentinel
			p.EvidenceSource = ""
			continue
		}
		evidence, source := evidenceFromItem(match)
		if evidence == "" {
			p.Evidence = domain.NoEvidenceSentinel
			p.EvidenceSource = ""
			continue
		}
		p.Evidence = evidence
		p.EvidenceSource = source
	}
	return resp
}

// evidenceFromItem pulls the most attribute-bearing field available, in a
// fixed priority order. Long free-text fields are truncated.
func evidenceFromItem(it *domain.CatalogItem) (string, string) {
	if s := strings.TrimSpace(it.SuspensionNotes); s != "" {
		return s, "suspension_notes"
	}
	if it.EngineCC > 0 {
		return fmt.Sprintf("%d cc", it.EngineCC), "engine_cc"
	}
	if s := strings.TrimSpace(it.RideType); s != "" {
		return s, "ride_type"
	}
	if it.PriceUSDEstimate > 0 {
		return fmt.Sprintf("Price est $%d", it.PriceUSDEstimate), "price_usd_estimate"
	}
	if s := strings.TrimSpace(it.Comment); s != "" {
		return textx.Truncate(s, 200), "comment"
	}
	if s := strings.TrimSpace(it.Text); s != "" {
		return textx.Truncate(s, 200), "text"
	}
	return "", ""
}
