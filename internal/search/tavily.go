// Package search implements the web fallback adapter: a Tavily search
// client, plus optional fetching of full result pages (robots.txt-checked
// and rate-limited) to enrich the content written back into the store.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/veracity/internal/cache"
	"github.com/ppiankov/veracity/internal/model"
)

const defaultBaseURL = "https://api.tavily.com"

// Client queries the Tavily search API
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
	respCache  cache.Cache // Optional; short-TTL response cache
}

// NewClient creates a search client. A missing API key is a configuration
// error surfaced here, before any call is attempted.
func NewClient(cfg model.SearchConfig, respCache cache.Cache) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &model.ConfigError{Field: "search.api_key", Reason: "Tavily API key is required"}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
		respCache:  respCache,
	}, nil
}

// Tavily API structures
type tavilyRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search runs a web search for the query. A provider failure yields a
// WebSearchError; a successful call with zero results yields ErrNoWebResults
// so callers can tell the two apart.
func (c *Client) Search(ctx context.Context, query string) ([]model.WebResult, error) {
	if c.respCache != nil {
		if data, found := c.respCache.Get(cache.SearchKey(query)); found {
			var cached []model.WebResult
			if json.Unmarshal(data, &cached) == nil && len(cached) > 0 {
				return cached, nil
			}
		}
	}

	reqBody, err := json.Marshal(tavilyRequest{
		Query:             query,
		SearchDepth:       "basic",
		MaxResults:        c.maxResults,
		IncludeAnswer:     false,
		IncludeRawContent: false,
	})
	if err != nil {
		return nil, &model.WebSearchError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(reqBody))
	if err != nil {
		return nil, &model.WebSearchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.WebSearchError{Err: fmt.Errorf("search request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4_000_000))
	if err != nil {
		return nil, &model.WebSearchError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.WebSearchError{Err: fmt.Errorf("search API status %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}

	var searchResp tavilyResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, &model.WebSearchError{Err: fmt.Errorf("decode response: %w", err)}
	}

	results := make([]model.WebResult, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		// A result without a usable URL cannot be cited or synced back
		if r.URL == "" {
			continue
		}
		results = append(results, model.WebResult{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}

	if len(results) == 0 {
		return nil, model.ErrNoWebResults
	}

	if c.respCache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = c.respCache.Set(cache.SearchKey(query), data, 0)
		}
	}

	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
