package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/veracity/internal/model"
)

// OpenAIProvider implements Provider and Embedder for OpenAI models
// (and any OpenAI-compatible endpoint via BaseURL)
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, &model.ConfigError{Field: "llm.api_key", Reason: "OpenAI API key is required"}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// evaluationSchema is the JSON schema forced onto evaluation responses.
// All four fields are required so the model cannot omit any of them.
var evaluationSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"evidence_found": {
			Type:        jsonschema.Boolean,
			Description: "Whether the evidence addresses the claim at all",
		},
		"confidence": {
			Type:        jsonschema.Number,
			Description: "Certainty of the verdict, between 0.0 and 1.0",
		},
		"explanation": {
			Type:        jsonschema.String,
			Description: "Reasoning grounded in the cited evidence",
		},
		"verdict": {
			Type:        jsonschema.Boolean,
			Description: "Whether the evidence supports the claim",
		},
	},
	Required:             []string{"evidence_found", "confidence", "explanation", "verdict"},
	AdditionalProperties: false,
}

// Evaluate requests a schema-constrained claim evaluation
func (p *OpenAIProvider) Evaluate(ctx context.Context, systemPrompt, userPrompt string) (*model.ClaimEvaluation, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: p.model(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   p.maxTokens(),
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        "claim_evaluation",
				Description: "Structured verdict for a claim verification",
				Schema:      &evaluationSchema,
				Strict:      true,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &model.EvalParseError{Provider: p.Name(), Err: fmt.Errorf("no choices in response")}
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)

	var ev model.ClaimEvaluation
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, &model.EvalParseError{Provider: p.Name(), Raw: truncate(raw, 200), Err: err}
	}
	if err := validateEvaluation(&ev); err != nil {
		return nil, &model.EvalParseError{Provider: p.Name(), Raw: truncate(raw, 200), Err: err}
	}

	return &ev, nil
}

// Freeform requests an unconstrained text completion
func (p *OpenAIProvider) Freeform(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: p.model(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   p.maxTokens(),
		Temperature: 0.3,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed computes embedding vectors for the given texts
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.Model()),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings count mismatch: got %d for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Model returns the embedding model identifier
func (p *OpenAIProvider) Model() string {
	if p.config.EmbeddingModel != "" {
		return p.config.EmbeddingModel
	}
	return string(openai.SmallEmbedding3)
}

func (p *OpenAIProvider) model() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	return openai.GPT4o
}

func (p *OpenAIProvider) maxTokens() int {
	if p.config.MaxTokens > 0 {
		return p.config.MaxTokens
	}
	return 1000
}

func (p *OpenAIProvider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// truncate shortens s for error messages
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
