package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ledgerchat/ledgerchat/internal/config"
	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/schemaindex"
)

func main() {
	concurrency := flag.Int("concurrency", 4, "number of concurrent embedding requests")
	flag.Parse()

	cfg, err := config.LoadFromEnv("ledgerchat-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	embedder, err := llm.NewEmbedder(cfg.Index.EmbedBaseURL, cfg.Index.EmbedModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "embedder error: %v\n", err)
		os.Exit(1)
	}

	store, err := schemaindex.Open(cfg.Index.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schema index open error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	docs := schemaindex.Corpus()
	if err := schemaindex.Seed(ctx, store, embedder, docs, *concurrency); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}

	count, err := store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "count error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("embedded %d table schema(s), index now holds %d document(s)\n", len(docs), count)
}
