package ingest

import (
	"net/url"

	"github.com/ppiankov/veracity/internal/model"
)

// FromWebResult converts one web search result into evidence chunks,
// carrying the provenance the search provider reported and the claim
// that triggered the search. Results with empty content yield nothing.
func (l *Loader) FromWebResult(res model.WebResult, query string) []model.EvidenceChunk {
	pieces := l.splitter.Split(res.Content)
	chunks := make([]model.EvidenceChunk, 0, len(pieces))
	for _, text := range pieces {
		chunks = append(chunks, model.EvidenceChunk{
			Text: text,
			Meta: model.ChunkMeta{
				Source:         hostOf(res.URL),
				SourceURL:      res.URL,
				SourceType:     model.SourceTypeWeb,
				Title:          res.Title,
				Query:          query,
				PublishedDate:  res.PublishedDate,
				RelevanceScore: res.Score,
			},
		})
	}
	return chunks
}

// FromWebResults flattens a batch of search results into one chunk slice
func (l *Loader) FromWebResults(results []model.WebResult, query string) []model.EvidenceChunk {
	var chunks []model.EvidenceChunk
	for _, res := range results {
		chunks = append(chunks, l.FromWebResult(res, query)...)
	}
	return chunks
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
