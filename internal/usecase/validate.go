package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danielgaio/moto-advisor/internal/convo"
	"github.com/danielgaio/moto-advisor/internal/domain"
)

// ValidateAndFilter applies budget filtering and the attribute-presence
// check to a parsed model response. Budget violations are filtered silently
// (with a note when nothing survives); a missing attribute mention asks the
// caller for one corrective retry. Unknown prices are kept: an item is only
// dropped once its price provably exceeds the budget.
func ValidateAndFilter(resp *domain.Response, history []string) domain.ValidationOutcome {
	if resp == nil {
		return domain.Reject("response is not a recognized object")
	}
	if resp.Type == domain.ResponseClarify {
		return domain.Accept(resp)
	}
	if resp.Type != domain.ResponseRecommendation {
		return domain.Reject(fmt.Sprintf("unrecognized response type %q", resp.Type))
	}

	if budget, ok := convo.ExtractBudget(history); ok {
		filterByBudget(resp, budget)
	}

	if attr, ok := convo.ExtractPrioritizedAttribute(history); ok {
		picks := resp.Picks()
		if len(picks) > 0 && !anyPickMentions(picks, attr) {
			return domain.Retry(
				fmt.Sprintf("no pick mentions the requested attribute %q in its reason or evidence", attr),
				attr,
			)
		}
	}
	return domain.Accept(resp)
}

func filterByBudget(resp *domain.Response, budget float64) {
	if resp.Primary != nil && overBudget(resp.Primary, budget) {
		resp.Primary = nil
	}
	kept := resp.Alternatives[:0]
	for i := range resp.Alternatives {
		if !overBudget(&resp.Alternatives[i], budget) {
			kept = append(kept, resp.Alternatives[i])
		}
	}
	resp.Alternatives = kept

	if resp.Primary == nil && len(resp.Alternatives) == 0 && resp.Note == "" {
		resp.Note = fmt.Sprintf("No items at or below the parsed budget $%s found in dataset.", formatBudget(budget))
	}
}

// overBudget treats an unknown or unparseable price as within budget.
func overBudget(p *domain.Pick, budget float64) bool {
	return p.PriceEst.Valid && p.PriceEst.Value > budget
}

func anyPickMentions(picks []*domain.Pick, attr string) bool {
	attr = strings.ToLower(attr)
	for _, p := range picks {
		if strings.Contains(strings.ToLower(p.Reason), attr) ||
			strings.Contains(strings.ToLower(p.Evidence), attr) {
			return true
		}
	}
	return false
}

func formatBudget(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
