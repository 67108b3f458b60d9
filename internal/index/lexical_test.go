package index

import (
	"strings"
	"testing"

	"github.com/ppiankov/veracity/internal/model"
)

func doc(id, text string) model.EvidenceChunk {
	return model.EvidenceChunk{ID: id, Text: text, Meta: model.ChunkMeta{Source: id}}
}

func TestLexical_Ranking(t *testing.T) {
	x := NewLexical()
	x.Rebuild([]model.EvidenceChunk{
		doc("a", "the sky appears blue due to rayleigh scattering of sunlight"),
		doc("b", "bread is baked from flour water and yeast"),
		doc("c", "blue whales are the largest animals on earth"),
	})

	results := x.Query("why is the sky blue", 3)
	if len(results) == 0 {
		t.Fatal("Expected results for matching query")
	}
	if results[0].Chunk.ID != "a" {
		t.Errorf("Expected doc a first, got %s", results[0].Chunk.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("Expected descending score order")
		}
	}

	// Non-matching docs are omitted entirely
	for _, r := range results {
		if r.Chunk.ID == "b" {
			t.Error("Doc b shares no terms with the query and should be omitted")
		}
	}
}

func TestLexical_EmptyCorpus(t *testing.T) {
	x := NewLexical()

	results := x.Query("anything at all", 5)
	if len(results) != 0 {
		t.Errorf("Empty corpus should yield no results, got %d", len(results))
	}

	// Even a query matching the placeholder text must not surface it
	results = x.Query("empty knowledge base", 5)
	for _, r := range results {
		if strings.Contains(r.Chunk.Text, placeholderText) {
			t.Error("Placeholder entry leaked into query results")
		}
	}
}

func TestLexical_RebuildReplaces(t *testing.T) {
	x := NewLexical()
	x.Rebuild([]model.EvidenceChunk{doc("a", "original corpus about volcanoes")})

	if got := x.Query("volcanoes", 5); len(got) != 1 {
		t.Fatalf("Expected 1 result before rebuild, got %d", len(got))
	}

	x.Rebuild([]model.EvidenceChunk{doc("b", "replacement corpus about oceans")})

	if got := x.Query("volcanoes", 5); len(got) != 0 {
		t.Errorf("Old corpus should be gone after rebuild, got %d results", len(got))
	}
	if got := x.Query("oceans", 5); len(got) != 1 || got[0].Chunk.ID != "b" {
		t.Errorf("Expected new corpus to be queryable, got %v", got)
	}
}

func TestLexical_DeterministicTies(t *testing.T) {
	x := NewLexical()
	x.Rebuild([]model.EvidenceChunk{
		doc("b", "identical words here"),
		doc("a", "identical words here"),
	})

	results := x.Query("identical words", 2)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "a" || results[1].Chunk.ID != "b" {
		t.Errorf("Expected tie broken by ID (a before b), got %s, %s", results[0].Chunk.ID, results[1].Chunk.ID)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("The sky, the SKY! 42.")
	want := []string{"the", "sky", "the", "sky", "42"}
	if len(got) != len(want) {
		t.Fatalf("tokenize returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
