package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/xhad/reviews/pkg/config"
	"github.com/xhad/reviews/pkg/history"
	"github.com/xhad/reviews/pkg/llm"
	"github.com/xhad/reviews/pkg/rag"
	"github.com/xhad/reviews/pkg/store"
	"github.com/xhad/reviews/server"
)

func main() {
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return errs
	}

	logger := log.New(log.Writer(), "[SERVER] ", log.LstdFlags)

	completer, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLMAPIKey(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.EmbeddingAPIKey(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	vectorStore, err := store.LoadOrCreate(context.Background(), store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
	}, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}
	defer vectorStore.Close()

	orch := rag.NewWithConfig(rag.OrchestratorConfig{
		TopK:            cfg.RAG.TopK,
		MaxQuestionLen:  cfg.RAG.MaxQuestionLen,
		ProviderTimeout: time.Duration(cfg.RAG.ProviderTimeoutSecs) * time.Second,
	}, vectorStore, completer, history.New(cfg.History.MaxTurns))

	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		SessionSecret:   cfg.Server.SessionSecret,
		MaxQuestionLen:  cfg.RAG.MaxQuestionLen,
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
	}, orch)

	logger.Printf("listening on :%d", cfg.Server.Port)
	return srv.Start()
}
