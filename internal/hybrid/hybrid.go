// Package hybrid fuses the semantic, lexical, and graph-reachability
// indices into a single ranked result under configurable weights.
//
// Follows an evaluate-merge-rank shape: each weighted sub-query runs
// independently, candidates are unioned by key, and the combined score is
// a weighted sum across whichever sub-scores are present.
package hybrid

import (
	"sort"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/graphidx"
	"github.com/agrama/agrama/internal/lexical"
	"github.com/agrama/agrama/internal/semantic"
	"github.com/agrama/agrama/internal/store"
)

// Query is a single hybrid search request.
type Query struct {
	Text          string
	Embedding     []float32
	StartingNodes []string
	K             int

	Alpha float64 // lexical weight
	Beta  float64 // semantic weight
	Gamma float64 // graph weight

	MaxHops int // bounds the graph sub-query; ignored if Gamma == 0
	Ef      int // HNSW search breadth; ignored if Beta == 0
}

// Result is one fused hit.
type Result struct {
	DocKey        string
	LexicalScore  float64
	SemanticScore float64
	GraphScore    float64
	CombinedScore float64
	MatchingTerms []string
	GraphDistance *int
}

// Engine evaluates hybrid queries against a fixed set of indices.
type Engine struct {
	Lexical  *lexical.Index
	Semantic *semantic.Index
	Store    *store.Store
}

// New creates an Engine wired to the given sub-indices.
func New(lex *lexical.Index, sem *semantic.Index, s *store.Store) *Engine {
	return &Engine{Lexical: lex, Semantic: sem, Store: s}
}

// Search evaluates every sub-query with non-zero weight, takes the union
// of their candidates, fills in missing sub-scores (zero where a
// sub-query did not apply or was not run), and ranks by the weighted
// combination. Fails with agerr.InvalidWeights if alpha, beta, and gamma
// are all zero. Returns an empty slice (not an error) for an empty
// candidate set.
func (e *Engine) Search(q Query) ([]Result, error) {
	if q.Alpha == 0 && q.Beta == 0 && q.Gamma == 0 {
		return nil, agerr.InvalidWeights()
	}
	if q.K <= 0 {
		q.K = 10
	}

	candidates := make(map[string]*Result)
	get := func(key string) *Result {
		r, ok := candidates[key]
		if !ok {
			r = &Result{DocKey: key}
			candidates[key] = r
		}
		return r
	}

	if q.Alpha != 0 && q.Text != "" && e.Lexical != nil {
		for _, lr := range e.Lexical.Search(q.Text, 0) {
			r := get(lr.DocKey)
			r.LexicalScore = lr.Score
			r.MatchingTerms = lr.MatchingTerms
		}
	}

	if q.Beta != 0 && len(q.Embedding) > 0 && e.Semantic != nil {
		ef := q.Ef
		if ef <= 0 {
			ef = 64
		}
		results, err := e.Semantic.Search(q.Embedding, ef, ef)
		if err != nil {
			return nil, err
		}
		for _, sr := range results {
			r := get(sr.ID)
			r.SemanticScore = float64(sr.Similarity)
		}
	}

	if q.Gamma != 0 && len(q.StartingNodes) > 0 && e.Store != nil {
		maxHops := q.MaxHops
		if maxHops <= 0 {
			maxHops = 3
		}
		dist := graphidx.Reachable(e.Store, q.StartingNodes, maxHops)
		for node, d := range dist {
			r := get(node)
			dd := d
			r.GraphDistance = &dd
			r.GraphScore = graphidx.Score(d)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	out := make([]Result, 0, len(candidates))
	for _, r := range candidates {
		r.CombinedScore = q.Alpha*r.LexicalScore + q.Beta*r.SemanticScore + q.Gamma*r.GraphScore
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].DocKey < out[j].DocKey
	})

	if len(out) > q.K {
		out = out[:q.K]
	}
	return out, nil
}
