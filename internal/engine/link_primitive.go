package engine

import (
	"encoding/json"
	"strings"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/graphidx"
	"github.com/agrama/agrama/internal/store"
)

// linkPrimitive implements LINK {from, to, relation, metadata?}. It also
// accepts a map_graph option: when options.map_graph is true, the result
// additionally carries the bounded subgraph rooted at `from`.
type linkPrimitive struct{}

func (linkPrimitive) Metadata() Metadata {
	return Metadata{
		Name:        "link",
		Title:       "Link",
		Description: "Writes a directed, labeled edge between two keys for graph-reachability search.",
		CompositionExamples: []string{
			`link({"from":"notes/design","to":"notes/impl","relation":"references"})`,
		},
	}
}

func (linkPrimitive) Validate(p Params) error {
	for _, field := range []string{"from", "to", "relation"} {
		v, ok := p[field].(string)
		if !ok {
			return agerr.MissingField(field)
		}
		if v == "" {
			return agerr.EmptyString(field)
		}
		if strings.Contains(v, ":") {
			return agerr.Withf(agerr.KindValidation, "InvalidLinkField", "%s must not contain ':'", field)
		}
	}
	return nil
}

func (linkPrimitive) Execute(ctx *Context, p Params) (Value, error) {
	from := p["from"].(string)
	to := p["to"].(string)
	relation := p["relation"].(string)

	clock := VectorClock{}.Tick(ctx.AgentID)

	meta := map[string]any{"agent_id": ctx.AgentID, "vector_clock": clock}
	if m, ok := p["metadata"].(map[string]any); ok {
		for k, v := range m {
			meta[k] = v
		}
	}
	metaBytes, _ := json.Marshal(meta)

	ts, err := ctx.Store.Save(store.LinkKey(from, relation, to), metaBytes)
	if err != nil {
		return nil, err
	}

	result := Value{
		"success":   true,
		"from":      from,
		"to":        to,
		"relation":  relation,
		"timestamp": ts,
	}

	if opts, ok := p["options"].(map[string]any); ok {
		if mapGraph, _ := opts["map_graph"].(bool); mapGraph {
			maxHops := optInt(opts, "max_hops", 2)
			sub := graphidx.MapGraph(ctx.Store, from, maxHops)
			edges := make([]map[string]any, len(sub.Edges))
			for i, e := range sub.Edges {
				edges[i] = map[string]any{"from": e.From, "to": e.To, "relation": e.Relation}
			}
			result["map_graph"] = map[string]any{
				"nodes": sub.Nodes,
				"edges": edges,
			}
		}
	}

	return result, nil
}
