package store

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/ppiankov/veracity/internal/model"
)

// fakeEmbedder maps text to a deterministic bag-of-words vector so texts
// sharing words land close together in cosine space.
type fakeEmbedder struct {
	model string
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
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

func (f *fakeEmbedder) Model() string {
	if f.model != "" {
		return f.model
	}
	return "fake-embed"
}

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(Options{Path: dir, Collection: "test", Embedder: &fakeEmbedder{}})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func chunk(id, text string, meta model.ChunkMeta) model.EvidenceChunk {
	return model.EvidenceChunk{ID: id, Text: text, Meta: meta}
}

func TestStore_InsertAndQuery(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()

	chunks := []model.EvidenceChunk{
		chunk("", "the sky appears blue due to rayleigh scattering", model.ChunkMeta{Source: "physics.txt", SourceType: model.SourceTypeFile}),
		chunk("", "bread is made from flour and water", model.ChunkMeta{Source: "baking.txt", SourceType: model.SourceTypeFile}),
	}
	if err := s.Insert(ctx, chunks); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Expected 2 chunks, got %d", s.Len())
	}

	results, err := s.NearestNeighbors(ctx, "why is the sky blue", 2)
	if err != nil {
		t.Fatalf("NearestNeighbors failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if !strings.Contains(results[0].Chunk.Text, "sky") {
		t.Errorf("Expected sky chunk first, got %q", results[0].Chunk.Text)
	}
	if results[0].Distance > results[1].Distance {
		t.Error("Expected ascending distance order")
	}
}

func TestStore_EmptyInsertIsNoOp(t *testing.T) {
	s := openTestStore(t, t.TempDir())

	gen := s.Generation()
	if err := s.Insert(context.Background(), nil); err != nil {
		t.Fatalf("Empty insert should succeed, got %v", err)
	}
	if s.Generation() != gen {
		t.Error("Empty insert must not bump the generation")
	}
}

func TestStore_EmptyStoreQuery(t *testing.T) {
	s := openTestStore(t, t.TempDir())

	results, err := s.NearestNeighbors(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Query against empty store should not fail: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestStore_GenerationBumps(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()

	g0 := s.Generation()
	_ = s.Insert(ctx, []model.EvidenceChunk{chunk("", "some text", model.ChunkMeta{Source: "a"})})
	g1 := s.Generation()
	if g1 != g0+1 {
		t.Errorf("Insert should bump generation: %d -> %d", g0, g1)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if s.Generation() != g1+1 {
		t.Error("Clear should bump generation")
	}
	if s.Len() != 0 {
		t.Error("Clear should remove all chunks")
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Generation() != g1+2 {
		t.Error("Reset should bump generation")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Options{Path: dir, Collection: "test", Embedder: &fakeEmbedder{}})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err = s.Insert(ctx, []model.EvidenceChunk{
		chunk("", "persistent evidence about glaciers", model.ChunkMeta{
			Source:     "glaciers",
			SourceURL:  "https://example.com/a",
			SourceType: model.SourceTypeWeb,
		}),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openTestStore(t, dir)
	if reopened.Len() != 1 {
		t.Fatalf("Expected 1 chunk after reopen, got %d", reopened.Len())
	}

	results, err := reopened.NearestNeighbors(ctx, "glaciers", 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.Meta.SourceURL != "https://example.com/a" {
		t.Errorf("Expected round-tripped source_url, got %+v", results)
	}
}

func TestStore_EmbeddingModelMismatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Options{Path: dir, Collection: "test", Embedder: &fakeEmbedder{model: "model-a"}})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = s.Insert(ctx, []model.EvidenceChunk{chunk("", "text", model.ChunkMeta{Source: "x"})})
	_ = s.Close()

	_, err = Open(Options{Path: dir, Collection: "test", Embedder: &fakeEmbedder{model: "model-b"}})
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for embedding model mismatch, got %v", err)
	}
}

func TestStore_DeterministicRanking(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()

	// Two identical chunks: ranking must still be deterministic (tie broken by ID)
	err := s.Insert(ctx, []model.EvidenceChunk{
		chunk("", "identical text about rivers", model.ChunkMeta{Source: "a"}),
		chunk("", "identical text about rivers", model.ChunkMeta{Source: "b"}),
		chunk("", "unrelated text about deserts", model.ChunkMeta{Source: "c"}),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	first, err := s.NearestNeighbors(ctx, "rivers", 3)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	second, err := s.NearestNeighbors(ctx, "rivers", 3)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	for i := range first {
		if first[i].Chunk.ID != second[i].Chunk.ID {
			t.Fatalf("Ranking not deterministic at position %d: %s vs %s", i, first[i].Chunk.ID, second[i].Chunk.ID)
		}
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 2},
		{"length mismatch", []float32{1}, []float32{1, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
