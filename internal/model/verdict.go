package model

// ClaimEvaluation is the structured output contract of the reasoning model.
// All four fields must be populated by the provider; a malformed or partial
// response is a hard error for the evaluation step, never defaulted.
type ClaimEvaluation struct {
	EvidenceFound bool    `json:"evidence_found"` // Whether the evidence addresses the claim
	Confidence    float64 `json:"confidence"`     // In [0,1]
	Explanation   string  `json:"explanation"`    // Reasoning grounded in the evidence
	Verdict       bool    `json:"verdict"`        // Whether the evidence supports the claim
}

// WebResult is a single result returned by the web search provider
type WebResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

// EvidenceSource records which evidence pool produced the verdict
type EvidenceSource string

const (
	EvidenceSourceStore EvidenceSource = "store" // Local knowledge store
	EvidenceSourceWeb   EvidenceSource = "web"   // Web search fallback
)

// RunState is the mutable record threaded through one verification run.
// It is created fresh per request, owned exclusively by the pipeline for
// the run's lifetime, and discarded once the result is produced.
type RunState struct {
	Claim          string
	Evidence       []EvidenceChunk
	EvidenceFound  bool
	Confidence     float64
	WebEvidence    []WebResult
	Verdict        bool
	Explanation    string
	EvidenceSource EvidenceSource
	SourceURLs     []string // De-duplicated, insertion order preserved
}

// AddSourceURL appends a source reference, preserving first-appearance order
func (s *RunState) AddSourceURL(url string) {
	if url == "" {
		return
	}
	for _, existing := range s.SourceURLs {
		if existing == url {
			return
		}
	}
	s.SourceURLs = append(s.SourceURLs, url)
}

// VerificationResult is the final output of a verification run
type VerificationResult struct {
	Claim          string         `json:"claim"`
	Explanation    string         `json:"explanation"`
	EvidenceSource EvidenceSource `json:"evidence_source"`
	SourceURLs     []string       `json:"source_urls"`
	Verdict        bool           `json:"verdict"`
}
