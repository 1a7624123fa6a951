package engine

import (
	"time"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/graphidx"
	"github.com/agrama/agrama/internal/hybrid"
)

// searchPrimitive implements SEARCH {query, type, options?}.
type searchPrimitive struct{}

func (searchPrimitive) Metadata() Metadata {
	return Metadata{
		Name:        "search",
		Title:       "Search",
		Description: "Dispatches a query to the semantic, lexical, graph, temporal, or hybrid index.",
		CompositionExamples: []string{
			`search({"query":"quick","type":"lexical"})`,
			`search({"query":"q","type":"hybrid","options":{"alpha":0.3,"beta":0.5,"gamma":0.2}})`,
		},
	}
}

var validSearchTypes = map[string]bool{
	"semantic": true, "lexical": true, "graph": true, "temporal": true, "hybrid": true,
}

func (searchPrimitive) Validate(p Params) error {
	typ, ok := p["type"].(string)
	if !ok {
		return agerr.MissingField("type")
	}
	if !validSearchTypes[typ] {
		return agerr.InvalidSearchType(typ)
	}

	_, hasQuery := p["query"].(string)
	opts, _ := p["options"].(map[string]any)
	_, hasEmbedding := opts["embedding"]

	switch typ {
	case "temporal", "graph":
		// query not required; options.key / options.starting_nodes are
		// validated in Execute.
	case "hybrid":
		if !hasQuery && !hasEmbedding {
			return agerr.MissingField("query")
		}
	default:
		if !hasQuery {
			return agerr.MissingField("query")
		}
	}
	return nil
}

func (searchPrimitive) Execute(ctx *Context, p Params) (Value, error) {
	typ := p["type"].(string)
	query, _ := p["query"].(string)
	opts, _ := p["options"].(map[string]any)

	k := optInt(opts, "max_results", 10)

	var results []map[string]any
	var err error

	switch typ {
	case "lexical":
		results, err = searchLexical(ctx, query, k)
	case "semantic":
		results, err = searchSemantic(ctx, opts, k)
	case "graph":
		results, err = searchGraph(ctx, opts)
	case "temporal":
		results, err = searchTemporal(ctx, opts)
	case "hybrid":
		results, err = searchHybrid(ctx, query, opts, k)
	default:
		return nil, agerr.InvalidSearchType(typ)
	}
	if err != nil {
		return nil, err
	}

	return Value{
		"query":   query,
		"type":    typ,
		"results": results,
		"count":   len(results),
	}, nil
}

func searchLexical(ctx *Context, query string, k int) ([]map[string]any, error) {
	hits := ctx.Lexical.Search(query, k)
	out := make([]map[string]any, len(hits))
	for i, h := range hits {
		out[i] = map[string]any{
			"key":            h.DocKey,
			"score":          h.Score,
			"matching_terms": h.MatchingTerms,
		}
	}
	return out, nil
}

func searchSemantic(ctx *Context, opts map[string]any, k int) ([]map[string]any, error) {
	embedding := optFloatSlice(opts, "embedding")
	if embedding == nil {
		return nil, agerr.MissingField("options.embedding")
	}
	ef := optInt(opts, "ef", 64)
	results, err := ctx.Semantic.Search(embedding, k, ef)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(results))
	for i, r := range results {
		out[i] = map[string]any{"key": r.ID, "score": r.Similarity}
	}
	return out, nil
}

func searchGraph(ctx *Context, opts map[string]any) ([]map[string]any, error) {
	starts := optStringSlice(opts, "starting_nodes")
	if len(starts) == 0 {
		return nil, agerr.MissingField("options.starting_nodes")
	}
	maxHops := optInt(opts, "max_hops", 3)

	dist := graphidx.Reachable(ctx.Store, starts, maxHops)
	out := make([]map[string]any, 0, len(dist))
	for node, d := range dist {
		out = append(out, map[string]any{
			"key":      node,
			"distance": d,
			"score":    1.0 / float64(1+d),
		})
	}
	return out, nil
}

func searchTemporal(ctx *Context, opts map[string]any) ([]map[string]any, error) {
	key, _ := opts["key"].(string)
	if key == "" {
		return nil, agerr.MissingField("options.key")
	}
	start := optTime(opts, "start_time")
	end := optTime(opts, "end_time")

	records, err := ctx.Store.TimeRange(key, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = map[string]any{
			"timestamp": r.Timestamp,
			"value":     string(r.Content),
		}
	}
	return out, nil
}

func searchHybrid(ctx *Context, query string, opts map[string]any, k int) ([]map[string]any, error) {
	q := hybrid.Query{
		Text:          query,
		Embedding:     optFloatSlice(opts, "embedding"),
		StartingNodes: optStringSlice(opts, "starting_nodes"),
		K:             k,
		Alpha:         optFloat(opts, "alpha", 0),
		Beta:          optFloat(opts, "beta", 0),
		Gamma:         optFloat(opts, "gamma", 0),
		MaxHops:       optInt(opts, "max_hops", 3),
		Ef:            optInt(opts, "ef", 64),
	}

	results, err := ctx.Hybrid.Search(q)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(results))
	for i, r := range results {
		entry := map[string]any{
			"key":            r.DocKey,
			"semantic_score": r.SemanticScore,
			"lexical_score":  r.LexicalScore,
			"graph_score":    r.GraphScore,
			"combined_score": r.CombinedScore,
			"matching_terms": r.MatchingTerms,
		}
		if r.GraphDistance != nil {
			entry["graph_distance"] = *r.GraphDistance
		}
		out[i] = entry
	}
	return out, nil
}

func optInt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func optFloat(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return def
}

func optFloatSlice(m map[string]any, key string) []float32 {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float32, len(raw))
	for i, v := range raw {
		f, _ := v.(float64)
		out[i] = float32(f)
	}
	return out
}

func optStringSlice(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		s, _ := v.(string)
		out[i] = s
	}
	return out
}

func optTime(m map[string]any, key string) time.Time {
	s, ok := m[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
