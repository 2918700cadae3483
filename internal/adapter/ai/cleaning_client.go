package ai

import (
	"context"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

// cleaningClient wraps a ModelClient and repairs JSON-ish output before it
// reaches the parser. Prose replies pass through untouched so the caller can
// return them verbatim.
type cleaningClient struct {
	base    domain.ModelClient
	cleaner *ResponseCleaner
}

// NewCleaningClient wraps base with JSON output cleaning.
func NewCleaningClient(base domain.ModelClient) domain.ModelClient {
	if base == nil {
		return nil
	}
	return &cleaningClient{base: base, cleaner: NewResponseCleaner()}
}

func (c *cleaningClient) Invoke(ctx context.Context, prompt string) (string, error) {
	raw, err := c.base.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	cleaned := c.cleaner.CleanJSONResponse(raw)
	if c.cleaner.IsValidJSON(cleaned) {
		return cleaned, nil
	}
	return raw, nil
}
