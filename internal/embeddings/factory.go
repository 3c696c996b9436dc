package embeddings

import (
	"fmt"
	"os"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/config"
)

// NewEmbedder creates an embedder from the configuration. The embedding
// provider falls back to the chat provider when unset.
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(cfg.EmbeddingModel)), nil

	case config.ProviderGoogle:
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleEmbedder(apiKey, GoogleModel(cfg.EmbeddingModel)), nil

	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		return NewOllamaEmbedder(cfg.EmbeddingModel, 768, host), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
