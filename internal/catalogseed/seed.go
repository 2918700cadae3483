// Package catalogseed loads motorcycle review CSVs into Qdrant.
//
// A YAML manifest names the review files and the target collection; every
// row is embedded and upserted with its structured payload so the retriever
// can filter and enrich picks later.
package catalogseed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/danielgaio/moto-advisor/internal/adapter/catalog"
	"github.com/danielgaio/moto-advisor/internal/adapter/vector"
	qdrantcli "github.com/danielgaio/moto-advisor/internal/adapter/vector/qdrant"
	"github.com/danielgaio/moto-advisor/internal/domain"
)

// Manifest describes a seeding run.
type Manifest struct {
	Collection string   `yaml:"collection"`
	VectorSize int      `yaml:"vector_size"`
	Distance   string   `yaml:"distance"`
	Files      []string `yaml:"files"`
}

// LoadManifest reads and validates a YAML manifest, constraining relative
// paths to the current working directory.
func LoadManifest(path string) (Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Manifest{}, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return Manifest{}, err
	}
	abs = filepath.Clean(abs)
	wd = filepath.Clean(wd)
	if os.Getenv("CATALOGSEED_ALLOW_ABSPATHS") != "1" {
		if !strings.HasPrefix(abs, wd+string(os.PathSeparator)) && abs != wd {
			return Manifest{}, fmt.Errorf("disallowed path: %s", abs)
		}
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, fmt.Errorf("manifest not found: %s", path)
		}
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("yaml parse: %w", err)
	}
	if m.Collection == "" {
		m.Collection = "moto_reviews"
	}
	if m.VectorSize <= 0 {
		m.VectorSize = 768
	}
	if m.Distance == "" {
		m.Distance = "Cosine"
	}
	if len(m.Files) == 0 {
		return Manifest{}, fmt.Errorf("no files listed in %s", path)
	}
	return m, nil
}

// Seed ensures the collection exists and ingests every file in the manifest.
func Seed(ctx context.Context, q *qdrantcli.Client, embedder domain.Embedder, m Manifest) (int, error) {
	if err := q.EnsureCollection(ctx, m.Collection, m.VectorSize, m.Distance); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	total := 0
	for _, f := range m.Files {
		items, err := catalog.LoadFile(f)
		if err != nil {
			return total, fmt.Errorf("load %s: %w", f, err)
		}
		n, err := upsertItems(ctx, q, embedder, m.Collection, items)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func upsertItems(ctx context.Context, q *qdrantcli.Client, embedder domain.Embedder, collection string, items []domain.CatalogItem) (int, error) {
	const batch = 16
	total := 0
	for i := 0; i < len(items); i += batch {
		end := i + batch
		if end > len(items) {
			end = len(items)
		}
		chunk := items[i:end]

		texts := make([]string, len(chunk))
		for j, it := range chunk {
			texts[j] = it.FullText()
		}
		vecs, err := embedder.Embed(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("embed: %w", err)
		}

		payloads := make([]map[string]any, len(chunk))
		ids := make([]any, len(chunk))
		for j, it := range chunk {
			payloads[j] = vector.PayloadFromItem(it)
			ids[j] = pointID(collection, it)
		}
		if err := q.UpsertPoints(ctx, collection, vecs, payloads, ids); err != nil {
			return total, fmt.Errorf("qdrant upsert: %w", err)
		}
		total += len(chunk)
	}
	return total, nil
}

// pointID derives a deterministic UUID so re-ingestion overwrites instead of
// duplicating points.
func pointID(collection string, it domain.CatalogItem) string {
	key := fmt.Sprintf("%s:%s:%s:%d:%s", collection, it.Brand, it.Model, it.Year, it.Source)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
