package usecase

import (
	"fmt"
	"strings"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

// FormatResponse renders a validated, enriched response as display text.
func FormatResponse(resp *domain.Response) string {
	if resp == nil {
		return ""
	}
	if resp.Type == domain.ResponseClarify {
		if resp.Question == "" {
			return "(no question provided)"
		}
		return resp.Question
	}

	var lines []string
	hasPicks := resp.Primary != nil || len(resp.Alternatives) > 0

	if resp.Primary != nil {
		lines = append(lines, "Top recommendation:")
		lines = append(lines, formatPrimary(resp.Primary))
	}
	if len(resp.Alternatives) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "Alternatives:")
		for i := range resp.Alternatives {
			lines = append(lines, formatAlternative(&resp.Alternatives[i]))
		}
	}
	if !hasPicks {
		note := resp.Note
		if note == "" {
			note = "No recommendations match the strict budget or constraints."
		}
		return "No picks matched strictly. Note: " + note
	}
	if resp.Note != "" {
		lines = append(lines, "", "Note: "+resp.Note)
	}
	return strings.Join(lines, "\n")
}

func formatPrimary(p *domain.Pick) string {
	line := fmt.Sprintf("• %s %s (%s), Price est: $%s. Reason: %s.",
		p.Brand, p.Model, p.Year.String(), p.PriceEst.String(), p.Reason)
	if p.Evidence != "" {
		line += " Evidence: " + p.Evidence
	}
	return line
}

func formatAlternative(p *domain.Pick) string {
	return fmt.Sprintf("• %s %s (%s) - $%s. %s",
		p.Brand, p.Model, p.Year.String(), p.PriceEst.String(), p.Reason)
}
