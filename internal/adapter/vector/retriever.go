// Package vector adapts the Qdrant search surface to the domain's catalog
// retrieval port.
package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielgaio/moto-advisor/internal/adapter/vector/qdrant"
	"github.com/danielgaio/moto-advisor/internal/domain"
)

// Retriever embeds the query and searches the review collection, mapping
// point payloads back into catalog items.
type Retriever struct {
	client     *qdrant.Client
	embedder   domain.Embedder
	collection string
	topK       int
	log        *slog.Logger
}

// NewRetriever wires the Qdrant client and embedder into a domain.Retriever.
func NewRetriever(client *qdrant.Client, embedder domain.Embedder, collection string, topK int, log *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Retriever{client: client, embedder: embedder, collection: collection, topK: topK, log: log}
}

// GetRelevantItems returns the top-k catalog items for a free-text query.
// An empty query yields no items rather than an error.
func (r *Retriever) GetRelevantItems(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	if query == "" {
		return nil, nil
	}
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("op=vector.GetRelevantItems: embed: %w", err)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	results, err := r.client.Search(ctx, r.collection, vecs[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("op=vector.GetRelevantItems: search: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(results))
	for _, res := range results {
		payload, ok := res["payload"].(map[string]any)
		if !ok {
			continue
		}
		items = append(items, itemFromPayload(payload))
	}
	r.log.Debug("vector search done", slog.String("query", query), slog.Int("hits", len(items)))
	return items, nil
}

func itemFromPayload(p map[string]any) domain.CatalogItem {
	return domain.CatalogItem{
		Brand:            asString(p["brand"]),
		Model:            asString(p["model"]),
		Year:             asInt(p["year"]),
		Comment:          asString(p["comment"]),
		Text:             asString(p["text"]),
		PriceUSDEstimate: asInt(p["price_usd_estimate"]),
		EngineCC:         asInt(p["engine_cc"]),
		SuspensionNotes:  asString(p["suspension_notes"]),
		RideType:         asString(p["ride_type"]),
		Source:           asString(p["source"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt tolerates the float64 JSON decoding produces for numbers.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// PayloadFromItem is the inverse mapping used at ingestion time.
func PayloadFromItem(it domain.CatalogItem) map[string]any {
	return map[string]any{
		"brand":              it.Brand,
		"model":              it.Model,
		"year":               it.Year,
		"comment":            it.Comment,
		"text":               it.Text,
		"price_usd_estimate": it.PriceUSDEstimate,
		"engine_cc":          it.EngineCC,
		"suspension_notes":   it.SuspensionNotes,
		"ride_type":          it.RideType,
		"source":             it.Source,
	}
}

var _ domain.Retriever = (*Retriever)(nil)
