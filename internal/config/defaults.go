package config

// defaultModels maps each provider to its default chat and embedding models.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle: {Model: "gemini-2.5-flash", EmbeddingModel: "text-embedding-004"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Model:             "gemini-2.5-flash",
		EmbeddingProvider: ProviderGoogle,
		EmbeddingModel:    "text-embedding-004",
		ContentAPI: ContentAPIConfig{
			BaseURL:        "http://localhost:8000/api",
			TimeoutSeconds: 30,
		},
		Chroma: ChromaConfig{
			PersistDir: "./data/vector-store",
			Collection: "faq_document_vector",
		},
		Chunk: ChunkConfig{
			Size:    1500,
			Overlap: 150,
		},
		RetrievalK: 3,
		Server: ServerConfig{
			Port: 8080,
		},
		DataDir:           "./data",
		MaxConcurrency:    5,
		RequestsPerMinute: 60,
	}
}

// DefaultModelsFor returns the default chat and embedding model names for a provider.
func DefaultModelsFor(provider ProviderType) (model, embeddingModel string) {
	if m, ok := defaultModels[provider]; ok {
		return m.Model, m.EmbeddingModel
	}
	m := defaultModels[ProviderGoogle]
	return m.Model, m.EmbeddingModel
}
