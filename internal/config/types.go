package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// ContentAPIConfig describes the upstream content API that owns the
// authoritative FAQ, document and tracking records.
type ContentAPIConfig struct {
	BaseURL        string `yaml:"base_url" koanf:"base_url"`
	Token          string `yaml:"token" koanf:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ChromaConfig holds vector collection settings.
type ChromaConfig struct {
	PersistDir string `yaml:"persist_dir" koanf:"persist_dir"`
	Collection string `yaml:"collection" koanf:"collection"`
}

// ChunkConfig controls how source documents are split before indexing.
type ChunkConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	APIKey          string `yaml:"api_key" koanf:"api_key"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Config is the top-level capilbot configuration, corresponding to capilbot.yml.
type Config struct {
	Provider          ProviderType     `yaml:"provider" koanf:"provider"`
	Model             string           `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType     `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string           `yaml:"embedding_model" koanf:"embedding_model"`
	ContentAPI        ContentAPIConfig `yaml:"content_api" koanf:"content_api"`
	Chroma            ChromaConfig     `yaml:"chroma" koanf:"chroma"`
	Chunk             ChunkConfig      `yaml:"chunk" koanf:"chunk"`
	RetrievalK        int              `yaml:"retrieval_k" koanf:"retrieval_k"`
	Server            ServerConfig     `yaml:"server" koanf:"server"`
	DataDir           string           `yaml:"data_dir" koanf:"data_dir"`
	MaxConcurrency    int              `yaml:"max_concurrency" koanf:"max_concurrency"`
	RequestsPerMinute int              `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}
