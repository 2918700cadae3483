// Command catalogseed ingests motorcycle review CSVs into Qdrant.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/redis/go-redis/v9"

	ai "github.com/danielgaio/moto-advisor/internal/adapter/ai"
	qdrantcli "github.com/danielgaio/moto-advisor/internal/adapter/vector/qdrant"
	"github.com/danielgaio/moto-advisor/internal/catalogseed"
	"github.com/danielgaio/moto-advisor/internal/config"
)

func main() {
	manifestPath := flag.String("manifest", "configs/catalog/reviews.yaml", "path to the seed manifest")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	_, embedder, err := ai.NewFromConfig(cfg, rdb, nil)
	if err != nil {
		log.Fatal(err)
	}

	m, err := catalogseed.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatal(err)
	}

	q := qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)
	n, err := catalogseed.Seed(context.Background(), q, embedder, m)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("seeded %d catalog items into %s", n, m.Collection)
}
