package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/veracity/internal/model"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Evaluate_Success(t *testing.T) {
	server := chatServer(t, `{"evidence_found":true,"confidence":0.92,"explanation":"Evidence [1] confirms the claim.","verdict":true}`)
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	ev, err := provider.Evaluate(context.Background(), EvaluationSystemPrompt, "Claim: water is wet")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !ev.EvidenceFound {
		t.Error("Expected evidence_found=true")
	}
	if ev.Confidence != 0.92 {
		t.Errorf("Unexpected confidence: %v", ev.Confidence)
	}
	if !ev.Verdict {
		t.Error("Expected verdict=true")
	}
	if ev.Explanation == "" {
		t.Error("Expected non-empty explanation")
	}
}

func TestOpenAIProvider_Evaluate_SendsResponseSchema(t *testing.T) {
	var captured struct {
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string `json:"name"`
				Strict bool   `json:"strict"`
				Schema struct {
					Type     string   `json:"type"`
					Required []string `json:"required"`
				} `json:"schema"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    "assistant",
					Content: `{"evidence_found":false,"confidence":0.1,"explanation":"no evidence","verdict":false}`,
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Evaluate(context.Background(), EvaluationSystemPrompt, "Claim: x"); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// The schema must actually marshal into the request, constraining the
	// model to the full evaluation shape.
	if captured.ResponseFormat.Type != "json_schema" {
		t.Errorf("Expected response_format type json_schema, got %q", captured.ResponseFormat.Type)
	}
	if !captured.ResponseFormat.JSONSchema.Strict {
		t.Error("Expected strict schema mode")
	}
	if captured.ResponseFormat.JSONSchema.Schema.Type != "object" {
		t.Errorf("Schema did not serialize, got type %q", captured.ResponseFormat.JSONSchema.Schema.Type)
	}
	required := captured.ResponseFormat.JSONSchema.Schema.Required
	if len(required) != 4 {
		t.Fatalf("Expected 4 required fields, got %v", required)
	}
	for _, field := range []string{"evidence_found", "confidence", "explanation", "verdict"} {
		found := false
		for _, r := range required {
			if r == field {
				found = true
			}
		}
		if !found {
			t.Errorf("Field %q missing from schema required list", field)
		}
	}
}

func TestOpenAIProvider_Evaluate_ParseFailure(t *testing.T) {
	server := chatServer(t, "I think the claim is probably true.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Evaluate(context.Background(), EvaluationSystemPrompt, "Claim: water is wet")
	if err == nil {
		t.Fatal("Expected parse error for non-JSON response")
	}

	var parseErr *model.EvalParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected EvalParseError, got %T: %v", err, err)
	}
}

func TestOpenAIProvider_Evaluate_ConfidenceOutOfRange(t *testing.T) {
	server := chatServer(t, `{"evidence_found":true,"confidence":1.7,"explanation":"x","verdict":true}`)
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})

	_, err := provider.Evaluate(context.Background(), EvaluationSystemPrompt, "Claim")
	var parseErr *model.EvalParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected EvalParseError for out-of-range confidence, got %v", err)
	}
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Expected path /embeddings, got %s", r.URL.Path)
		}
		resp := openai.EmbeddingResponse{
			Object: "list",
			Data: []openai.Embedding{
				{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
				{Object: "embedding", Index: 1, Embedding: []float32{0.4, 0.5, 0.6}},
			},
			Model: openai.SmallEmbedding3,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	vectors, err := provider.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("Expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 0.1 || vectors[1][2] != 0.6 {
		t.Errorf("Vectors not in input order: %v", vectors)
	}
}

func TestNewOpenAIProvider_MissingKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{})
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for missing API key, got %v", err)
	}
}
