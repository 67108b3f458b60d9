package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/veracity/internal/model"
)

// Provider defines the interface for reasoning model providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Evaluate asks the model to judge a claim against evidence and returns
	// the structured verdict. The response is schema-constrained; a missing
	// or malformed response is an error, never a defaulted evaluation.
	Evaluate(ctx context.Context, systemPrompt, userPrompt string) (*model.ClaimEvaluation, error)

	// Freeform asks the model for an unconstrained text completion
	Freeform(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Embedder computes embedding vectors for texts
type Embedder interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model identifier
	Model() string
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai" or "ollama"
	Provider string

	// Model is the reasoning model name (provider-specific)
	Model string

	// EmbeddingModel is the embedding model name
	EmbeddingModel string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "openai",
		Model:          "gpt-4o",
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        60,
		MaxTokens:      1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:       mc.Provider,
		Model:          mc.Model,
		EmbeddingModel: mc.EmbeddingModel,
		APIKey:         mc.APIKey,
		BaseURL:        mc.BaseURL,
		Timeout:        mc.Timeout,
		MaxTokens:      mc.MaxTokens,
	}
}

// EvaluationSystemPrompt instructs the model how to judge claims
const EvaluationSystemPrompt = `You are a claim verification assistant. Your job is to decide whether the provided evidence supports or refutes a claim.

Guidelines:
- Ground your judgment ONLY in the provided evidence. Do not use outside knowledge.
- If the evidence does not address the claim, set evidence_found to false.
- confidence is your certainty in the verdict, between 0.0 and 1.0.
- verdict is true only if the evidence supports the claim.
- Cite evidence by its [index] in the explanation.
- Be concise but thorough.`

// validateEvaluation checks the decoded evaluation for out-of-range values
func validateEvaluation(ev *model.ClaimEvaluation) error {
	if ev.Confidence < 0 || ev.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range [0,1]", ev.Confidence)
	}
	return nil
}
