// Package index implements the in-memory lexical index over the knowledge
// store's current contents. The index is rebuilt wholesale after any store
// mutation (the backing corpus can change arbitrarily between queries), so
// there is no incremental update path.
package index

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/veracity/internal/model"
)

// BM25 parameters, standard values
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// placeholderID marks the degenerate entry used when the corpus is empty.
// The index type's invariant is a non-empty corpus; the placeholder keeps it
// constructible, and queries filter it so it never surfaces as evidence.
const placeholderID = "__placeholder__"

// placeholderText mirrors the empty-knowledge-base marker used upstream
const placeholderText = "(empty knowledge base)"

// ScoredChunk is a chunk with its keyword relevance score (higher = better)
type ScoredChunk struct {
	Chunk model.EvidenceChunk
	Score float64
}

type indexedDoc struct {
	chunk  model.EvidenceChunk
	terms  map[string]int // Term frequencies
	length int            // Total term count
}

// Lexical is a BM25 keyword index over evidence chunks
type Lexical struct {
	docs      []indexedDoc
	docFreq   map[string]int // Documents containing each term
	avgLength float64
}

// NewLexical creates an empty lexical index. Call Rebuild before querying.
func NewLexical() *Lexical {
	x := &Lexical{}
	x.Rebuild(nil)
	return x
}

// Rebuild replaces the index contents with the given chunks. An empty
// corpus is indexed as a single placeholder entry.
func (x *Lexical) Rebuild(chunks []model.EvidenceChunk) {
	if len(chunks) == 0 {
		chunks = []model.EvidenceChunk{{
			ID:   placeholderID,
			Text: placeholderText,
			Meta: model.ChunkMeta{Source: "placeholder"},
		}}
	}

	x.docs = make([]indexedDoc, 0, len(chunks))
	x.docFreq = make(map[string]int)

	totalLength := 0
	for _, c := range chunks {
		terms := make(map[string]int)
		tokens := tokenize(c.Text)
		for _, tok := range tokens {
			terms[tok]++
		}
		for term := range terms {
			x.docFreq[term]++
		}
		x.docs = append(x.docs, indexedDoc{chunk: c, terms: terms, length: len(tokens)})
		totalLength += len(tokens)
	}

	x.avgLength = float64(totalLength) / float64(len(x.docs))
	if x.avgLength == 0 {
		x.avgLength = 1
	}
}

// Query returns up to k chunks ordered descending by BM25 score. Chunks
// matching no query term are omitted, as is the placeholder entry.
func (x *Lexical) Query(text string, k int) []ScoredChunk {
	if k <= 0 {
		return nil
	}

	queryTerms := tokenize(text)
	if len(queryTerms) == 0 {
		return nil
	}

	n := float64(len(x.docs))
	results := make([]ScoredChunk, 0, len(x.docs))

	for _, doc := range x.docs {
		if doc.chunk.ID == placeholderID {
			continue
		}

		score := 0.0
		for _, term := range queryTerms {
			tf := doc.terms[term]
			if tf == 0 {
				continue
			}
			df := float64(x.docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := bm25K1 * (1 - bm25B + bm25B*float64(doc.length)/x.avgLength)
			score += idf * float64(tf) * (bm25K1 + 1) / (float64(tf) + norm)
		}

		if score > 0 {
			results = append(results, ScoredChunk{Chunk: doc.chunk, Score: score})
		}
	}

	// Ties broken by chunk ID so identical corpora rank identically
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// tokenize lowercases and splits text on non-alphanumeric runes
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
