package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/config"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/embeddings"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/index"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/llm"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `capilbot init` to create a config file", err)
	}
	return cfg, nil
}

// buildManager assembles the content client, embedder and vector store
// into an index manager. Shared by serve and reindex.
func buildManager(cfg *config.Config, onProgress index.ProgressFunc) (*index.Manager, *content.Client, error) {
	client := content.NewClient(content.Config{
		BaseURL: cfg.ContentAPI.BaseURL,
		Token:   cfg.ContentAPI.Token,
		Timeout: time.Duration(cfg.ContentAPI.TimeoutSeconds) * time.Second,
	})

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	persistDir := cfg.Chroma.PersistDir
	if persistDir == "" {
		persistDir = filepath.Join(cfg.DataDir, "vectordb")
	}

	manager := index.NewManager(index.Options{
		Store: func() (vectordb.Store, error) {
			return vectordb.NewChromemStore(embedder, persistDir, cfg.Chroma.Collection)
		},
		Content:        client,
		ChunkSize:      cfg.Chunk.Size,
		ChunkOverlap:   cfg.Chunk.Overlap,
		RetrievalK:     cfg.RetrievalK,
		MaxConcurrency: cfg.MaxConcurrency,
		OnProgress:     onProgress,
	})
	return manager, client, nil
}

// buildProvider creates the chat LLM provider with rate limiting applied.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}
