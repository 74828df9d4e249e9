package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/reviews/pkg/config"
	"github.com/xhad/reviews/pkg/converter"
	"github.com/xhad/reviews/pkg/llm"
	"github.com/xhad/reviews/pkg/store"
)

func main() {
	var configPath, filePath string
	var reingest bool

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&filePath, "file", "data/product_reviews.csv", "Path to the review CSV file")
	flag.BoolVar(&reingest, "reingest", false, "Re-ingest the review file into the vector store")
	flag.Parse()

	if err := run(configPath, filePath, reingest); err != nil {
		log.Fatal(err)
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(configPath, filePath string, reingest bool) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return errs
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.EmbeddingAPIKey(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	ctx := context.Background()
	vectorStore, err := store.LoadOrCreate(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
	}, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}
	defer vectorStore.Close()

	if !reingest {
		color.Green("✓ Using existing vector store as-is (pass -reingest to load %s)\n", filePath)
		return nil
	}

	docs, err := converter.ConvertFile(filePath)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	color.Blue("\nIngesting %d review documents from %s\n", len(docs), filePath)

	bar := getProgressBar(len(docs), " Embedding and storing reviews...")
	startTime := time.Now()
	batchSize := cfg.Database.BatchSize

	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[i:end]

		if err := vectorStore.Add(ctx, batch); err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}
		bar.Add(len(batch))

		elapsed := time.Since(startTime).Seconds()
		rate := float64(end) / elapsed
		bar.Describe(color.BlueString(
			" Embedding and storing reviews... (%.1f docs/sec)", rate))
	}
	bar.Finish()
	color.Green("\n✓ Ingestion complete\n")

	return nil
}
