package retrieve

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/veracity/internal/model"
)

// Reranker reorders and truncates hybrid candidates using a relevance model
// separate from retrieval scoring: coarse recall stays cheap over the whole
// corpus, precision is spent only on the small candidate set.
type Reranker struct {
	topN int
}

// NewReranker creates a re-ranker that keeps the top n candidates
func NewReranker(topN int) *Reranker {
	return &Reranker{topN: topN}
}

// Rerank returns the candidates reordered by relevance to the query and
// truncated to topN. The output is always a reordering of a subset of the
// input; no new items are introduced. Stable for identical input.
func (r *Reranker) Rerank(query string, candidates []model.EvidenceChunk) []model.EvidenceChunk {
	if len(candidates) == 0 {
		return nil
	}

	queryTerms := termSet(query)

	type scored struct {
		chunk model.EvidenceChunk
		score float64
	}
	items := make([]scored, len(candidates))
	for i, c := range candidates {
		items[i] = scored{chunk: c, score: relevance(queryTerms, c.Text)}
	}

	// Stable: candidates with equal relevance keep their retrieval order
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	n := r.topN
	if n <= 0 || n > len(items) {
		n = len(items)
	}

	out := make([]model.EvidenceChunk, n)
	for i := 0; i < n; i++ {
		out[i] = items[i].chunk
	}
	return out
}

// relevance is the set-cosine between query terms and document terms:
// overlap normalized by both lengths, so long documents are not favored
// for merely containing more words.
func relevance(queryTerms map[string]struct{}, text string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := termSet(text)
	if len(docTerms) == 0 {
		return 0
	}

	overlap := 0
	for term := range queryTerms {
		if _, ok := docTerms[term]; ok {
			overlap++
		}
	}

	return float64(overlap) / math.Sqrt(float64(len(queryTerms))*float64(len(docTerms)))
}

func termSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
