package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/veracity/internal/model"
)

// NewProvider creates a new reasoning provider based on configuration.
// Every supported provider also implements Embedder; use NewEmbedder to
// get the embedding view of the same configuration.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, &model.ConfigError{Field: "llm.provider", Reason: "no reasoning provider configured"}

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// NewEmbedder creates the embedding provider for the configuration
func NewEmbedder(config Config) (Embedder, error) {
	p, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	emb, ok := p.(Embedder)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support embeddings", p.Name())
	}
	return emb, nil
}
