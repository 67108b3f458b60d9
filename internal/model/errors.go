package model

import (
	"errors"
	"fmt"
)

// ErrNoWebResults signals that the web search provider answered successfully
// but found nothing. Distinct from a failed provider call so callers can
// tell "nothing out there" from "could not look".
var ErrNoWebResults = errors.New("no web search results")

// ConfigError reports a missing or invalid configuration value, typically a
// missing credential for an external provider. Surfaced before any call is
// attempted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// RetrievalError reports that the knowledge store or a derived index was
// unreachable or failed. The run aborts; no partial verdict is fabricated.
type RetrievalError struct {
	Stage string // "embed", "store", "index"
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed (%s): %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// EvalParseError reports that the reasoning model did not return a valid
// structured evaluation. Never silently defaulted.
type EvalParseError struct {
	Provider string
	Raw      string // Truncated raw output for diagnostics
	Err      error
}

func (e *EvalParseError) Error() string {
	return fmt.Sprintf("evaluation parse failed (%s): %v", e.Provider, e.Err)
}

func (e *EvalParseError) Unwrap() error { return e.Err }

// WebSearchError reports a failed web search provider call. Not fatal to a
// run: evaluation proceeds with empty web evidence.
type WebSearchError struct {
	Err error
}

func (e *WebSearchError) Error() string {
	return fmt.Sprintf("web search failed: %v", e.Err)
}

func (e *WebSearchError) Unwrap() error { return e.Err }

// SyncBackError reports a failed write-back of web evidence into the store.
// Logged and swallowed; the already-produced verdict is still returned.
type SyncBackError struct {
	URL string
	Err error
}

func (e *SyncBackError) Error() string {
	return fmt.Sprintf("sync-back failed for %s: %v", e.URL, e.Err)
}

func (e *SyncBackError) Unwrap() error { return e.Err }
