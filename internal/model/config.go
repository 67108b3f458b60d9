package model

import "time"

// Config is the complete application configuration
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Workers   WorkerConfig    `yaml:"workers"`
	Server    ServerConfig    `yaml:"server"`
	Output    OutputConfig    `yaml:"output"`
}

// StoreConfig configures the durable knowledge store
type StoreConfig struct {
	Path       string `yaml:"path"`       // Directory holding the vector index and metadata
	Collection string `yaml:"collection"` // Logical collection name
}

// LLMConfig configures the reasoning and embedding providers
type LLMConfig struct {
	Provider       string `yaml:"provider"`        // openai or ollama
	Model          string `yaml:"model"`           // Reasoning model name
	EmbeddingModel string `yaml:"embedding_model"` // Embedding model name
	APIKey         string `yaml:"api_key,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"` // Custom endpoint (e.g. Ollama)
	Timeout        int    `yaml:"timeout"`            // Seconds per API call
	MaxTokens      int    `yaml:"max_tokens"`
}

// RetrievalConfig configures hybrid retrieval and re-ranking
type RetrievalConfig struct {
	TopK                int     `yaml:"top_k"`                // Hybrid candidate count
	TopN                int     `yaml:"top_n"`                // Evidence count after re-ranking
	VectorWeight        float64 `yaml:"vector_weight"`        // Semantic ranking weight
	LexicalWeight       float64 `yaml:"lexical_weight"`       // Keyword ranking weight
	ConfidenceThreshold float64 `yaml:"confidence_threshold"` // Web fallback gate
}

// IngestConfig configures document splitting
type IngestConfig struct {
	DataDir      string `yaml:"data_dir"`      // Directory scanned by bulk ingestion
	ChunkSize    int    `yaml:"chunk_size"`    // Window size in characters
	ChunkOverlap int    `yaml:"chunk_overlap"` // Overlap between windows
}

// SearchConfig configures the web search fallback
type SearchConfig struct {
	APIKey            string  `yaml:"api_key,omitempty"` // Tavily API key
	BaseURL           string  `yaml:"base_url,omitempty"`
	MaxResults        int     `yaml:"max_results"`
	Timeout           int     `yaml:"timeout"`             // Seconds
	FetchPages        bool    `yaml:"fetch_pages"`         // Fetch full result pages for write-back
	RequestsPerSecond float64 `yaml:"requests_per_second"` // Per-domain page fetch rate
	MaxBodyBytes      int64   `yaml:"max_body_bytes"`      // Page fetch size cap
	UserAgent         string  `yaml:"user_agent"`
}

// CacheConfig configures the embedding and search-response caches
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`        // Disk tier location
	MemoryTTL time.Duration `yaml:"memory_ttl"` // Memory tier TTL
	DiskTTL   time.Duration `yaml:"disk_ttl"`   // Disk tier TTL
}

// WorkerConfig configures background work
type WorkerConfig struct {
	SyncWorkers  int `yaml:"sync_workers"`  // Write-back pool size
	SyncRetries  int `yaml:"sync_retries"`  // Attempts per write-back job
	EmbedWorkers int `yaml:"embed_workers"` // Bulk ingestion embedding concurrency
}

// ServerConfig configures the HTTP front door
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig configures CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:       "./veracity_db",
			Collection: "veracity",
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o",
			EmbeddingModel: "text-embedding-3-small",
			Timeout:        60,
			MaxTokens:      1000,
		},
		Retrieval: RetrievalConfig{
			TopK:                20,
			TopN:                5,
			VectorWeight:        0.7,
			LexicalWeight:       0.3,
			ConfidenceThreshold: 0.7,
		},
		Ingest: IngestConfig{
			DataDir:      "data",
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Search: SearchConfig{
			MaxResults:        5,
			Timeout:           30,
			FetchPages:        false,
			RequestsPerSecond: 1,
			MaxBodyBytes:      2_000_000,
			UserAgent:         "Veracity/0.1 (+https://github.com/ppiankov/veracity)",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Workers: WorkerConfig{
			SyncWorkers:  2,
			SyncRetries:  3,
			EmbedWorkers: 4,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Output: OutputConfig{},
	}
}
