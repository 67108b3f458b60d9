package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/veracity/internal/model"
)

// OllamaProvider implements Provider and Embedder for Ollama local models
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Ollama API structures
type ollamaGenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Format  json.RawMessage `json:"format,omitempty"` // JSON schema for structured output
	Options ollamaOptions   `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second // Local models can be slow
	}

	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks if the Ollama server is reachable
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// evaluationFormat is the JSON schema sent in the generate request's format
// field so Ollama constrains decoding to the evaluation shape.
var evaluationFormat = json.RawMessage(`{
	"type": "object",
	"properties": {
		"evidence_found": {"type": "boolean"},
		"confidence": {"type": "number"},
		"explanation": {"type": "string"},
		"verdict": {"type": "boolean"}
	},
	"required": ["evidence_found", "confidence", "explanation", "verdict"]
}`)

// Evaluate requests a schema-constrained claim evaluation
func (p *OllamaProvider) Evaluate(ctx context.Context, systemPrompt, userPrompt string) (*model.ClaimEvaluation, error) {
	raw, err := p.generate(ctx, systemPrompt, userPrompt, evaluationFormat, 0)
	if err != nil {
		return nil, err
	}

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
func (p *OllamaProvider) Freeform(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return p.generate(ctx, systemPrompt, userPrompt, nil, 0.3)
}

// generate calls the Ollama generate API
func (p *OllamaProvider) generate(ctx context.Context, system, prompt string, format json.RawMessage, temperature float64) (string, error) {
	ollamaReq := ollamaGenerateRequest{
		Model:  p.config.Model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Format: format,
		Options: ollamaOptions{
			Temperature: temperature,
			NumPredict:  p.config.MaxTokens,
		},
	}

	body, err := p.post(ctx, "/api/generate", ollamaReq)
	if err != nil {
		return "", err
	}

	var genResp ollamaGenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decode Ollama response: %w", err)
	}
	if genResp.Response == "" {
		return "", fmt.Errorf("empty response from Ollama")
	}

	return strings.TrimSpace(genResp.Response), nil
}

// Embed computes embedding vectors for the given texts
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := p.post(ctx, "/api/embed", ollamaEmbedRequest{
		Model: p.Model(),
		Input: texts,
	})
	if err != nil {
		return nil, err
	}

	var embResp ollamaEmbedResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("decode Ollama embeddings: %w", err)
	}
	if len(embResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embeddings count mismatch: got %d for %d texts", len(embResp.Embeddings), len(texts))
	}

	return embResp.Embeddings, nil
}

// Model returns the embedding model identifier
func (p *OllamaProvider) Model() string {
	if p.config.EmbeddingModel != "" {
		return p.config.EmbeddingModel
	}
	return "nomic-embed-text"
}

// post sends a JSON request to the Ollama API and returns the response body
func (p *OllamaProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Ollama API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("Ollama API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("Ollama API error: status %d", resp.StatusCode)
	}

	return body, nil
}
