package model

// SourceType classifies where a chunk of evidence came from
type SourceType string

const (
	SourceTypeFile SourceType = "file" // Ingested from a local document
	SourceTypeWeb  SourceType = "web"  // Discovered through web search
)

// ChunkMeta carries the provenance of an evidence chunk.
// Fields are fixed and typed; optional fields are zero-valued when absent.
type ChunkMeta struct {
	Source         string     `json:"source"`                    // Stable identifier (file path, domain, ...)
	SourceURL      string     `json:"source_url,omitempty"`      // Canonical URL if web-origin
	SourceType     SourceType `json:"source_type"`               // file or web
	Title          string     `json:"title,omitempty"`           // Document or page title
	Query          string     `json:"query,omitempty"`           // Claim that triggered discovery
	PublishedDate  string     `json:"published_date,omitempty"`  // As reported by the search provider
	RelevanceScore float64    `json:"relevance_score,omitempty"` // Provider-reported relevance
}

// EvidenceChunk is a unit of retrievable text plus provenance metadata.
// Chunks are immutable once created; identity is assigned by the store.
type EvidenceChunk struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Meta ChunkMeta `json:"meta"`
}

// Label returns the citation label for this chunk: the URL and title for
// web-origin evidence, the source identifier otherwise, "unknown" as a
// last resort.
func (c EvidenceChunk) Label() string {
	if c.Meta.SourceURL != "" {
		if c.Meta.Title != "" {
			return c.Meta.Title + " - " + c.Meta.SourceURL
		}
		return c.Meta.SourceURL
	}
	if c.Meta.Source != "" {
		return c.Meta.Source
	}
	return "unknown"
}

// SourceRef returns the identifier recorded in a verdict's source list:
// the canonical URL when present, else the stable source identifier.
// Empty when the chunk carries no provenance at all.
func (c EvidenceChunk) SourceRef() string {
	if c.Meta.SourceURL != "" {
		return c.Meta.SourceURL
	}
	return c.Meta.Source
}
