package hybrid

import (
	"testing"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/lexical"
	"github.com/agrama/agrama/internal/semantic"
	"github.com/agrama/agrama/internal/store"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	lex := lexical.New(lexical.DefaultParams())
	sem, err := semantic.New(semantic.Params{Dim: 3, M: 4, EfConstruction: 16, Seed: 1})
	if err != nil {
		t.Fatalf("semantic.New: %v", err)
	}
	s := store.New()

	docs := map[string]struct {
		text string
		vec  []float32
	}{
		"doc1": {"the quick brown fox", []float32{1, 0, 0}},
		"doc2": {"quick sort algorithm", []float32{0, 1, 0}},
		"doc3": {"a slow turtle", []float32{0, 0, 1}},
	}
	for key, d := range docs {
		lex.Index(key, d.text)
		sem.Insert(key, d.vec)
	}

	return New(lex, sem, s)
}

func TestAllWeightsZeroIsInvalid(t *testing.T) {
	e := setupEngine(t)
	_, err := e.Search(Query{Text: "quick", K: 5})
	if agerr.As(err) == nil {
		t.Fatal("expected InvalidWeights error")
	}
}

func TestPureSemanticWeightMatchesSemanticOnly(t *testing.T) {
	e := setupEngine(t)
	query := []float32{1, 0, 0}

	hybridResults, err := e.Search(Query{Embedding: query, Beta: 1, K: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	semOnly, err := e.Semantic.Search(query, 5, 64)
	if err != nil {
		t.Fatalf("Semantic.Search: %v", err)
	}

	if len(hybridResults) != len(semOnly) {
		t.Fatalf("len(hybrid)=%d len(semantic)=%d", len(hybridResults), len(semOnly))
	}
	for i := range hybridResults {
		if hybridResults[i].DocKey != semOnly[i].ID {
			t.Fatalf("order mismatch at %d: hybrid=%s semantic=%s", i, hybridResults[i].DocKey, semOnly[i].ID)
		}
	}
}

func TestPureLexicalWeightMatchesLexicalOnly(t *testing.T) {
	e := setupEngine(t)

	hybridResults, err := e.Search(Query{Text: "quick", Alpha: 1, K: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	lexOnly := e.Lexical.Search("quick", 5)

	if len(hybridResults) != len(lexOnly) {
		t.Fatalf("len(hybrid)=%d len(lexical)=%d", len(hybridResults), len(lexOnly))
	}
	for i := range hybridResults {
		if hybridResults[i].DocKey != lexOnly[i].DocKey {
			t.Fatalf("order mismatch at %d: hybrid=%s lexical=%s", i, hybridResults[i].DocKey, lexOnly[i].DocKey)
		}
	}
}

func TestEmptyCandidateSetReturnsEmptyNotError(t *testing.T) {
	lex := lexical.New(lexical.DefaultParams())
	sem, _ := semantic.New(semantic.Params{Dim: 3, M: 4})
	s := store.New()
	e := New(lex, sem, s)

	results, err := e.Search(Query{Text: "nothing indexed", Alpha: 1, K: 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %v", results)
	}
}

func TestGraphWeightZeroedWithoutStartingNodes(t *testing.T) {
	e := setupEngine(t)
	results, err := e.Search(Query{Text: "quick", Alpha: 0.5, Gamma: 0.5, K: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.GraphScore != 0 {
			t.Errorf("expected zero graph score with no starting nodes, got %f for %s", r.GraphScore, r.DocKey)
		}
	}
}
