package pipeline

import (
	"context"
	"hash/fnv"
	"log/slog"
	"strings"
	"testing"

	"github.com/ppiankov/veracity/internal/ingest"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/retrieve"
	"github.com/ppiankov/veracity/internal/store"
)

type bagEmbedder struct{}

func (bagEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 16)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			vec[h.Sum32()%16]++
		}
		out[i] = vec
	}
	return out, nil
}

func (bagEmbedder) Model() string { return "bag-embed" }

func TestSyncQueueWritesBackAndBecomesRetrievable(t *testing.T) {
	st, err := store.Open(store.Options{Path: t.TempDir(), Collection: "test", Embedder: bagEmbedder{}})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	loader := ingest.NewLoader(ingest.NewSplitter(1000, 200))
	queue := NewSyncQueue(st, loader, model.WorkerConfig{SyncWorkers: 2, SyncRetries: 2}, slog.Default())

	queue.Enqueue([]model.WebResult{
		{Title: "Boiling", URL: "https://example.com/boil", Content: "water boils at one hundred degrees celsius"},
		{URL: "", Content: "skipped, no url"},
		{URL: "https://example.com/empty", Content: ""},
	}, "water boils at 100C")
	queue.Close()

	if st.Len() != 1 {
		t.Fatalf("expected exactly 1 written-back chunk, got %d", st.Len())
	}

	// The written-back evidence is retrievable like any store content.
	retriever := retrieve.NewRetriever(st, model.RetrievalConfig{
		TopK: 10, TopN: 5, VectorWeight: 0.7, LexicalWeight: 0.3,
	})
	chunks, err := retriever.Retrieve(context.Background(), "water boils celsius")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected the written-back chunk, got %d", len(chunks))
	}

	m := chunks[0].Meta
	if m.SourceURL != "https://example.com/boil" {
		t.Errorf("source url lost in write-back: %q", m.SourceURL)
	}
	if m.SourceType != model.SourceTypeWeb {
		t.Errorf("expected web source type, got %q", m.SourceType)
	}
	if m.Query != "water boils at 100C" {
		t.Errorf("originating claim lost: %q", m.Query)
	}
}
