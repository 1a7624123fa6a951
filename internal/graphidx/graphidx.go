// Package graphidx implements the bounded-BFS frontier reachability index:
// given a set of starting nodes, it scores every other node by how close
// it is, using only link records as edges.
//
// Implemented as a direct frontier BFS over the temporal store's
// `_link:` keys: no bidirectional-Dijkstra shortcut applies to the
// bounded-hop case, since edges are unweighted and the traversal must
// stop at a hop limit rather than run to exhaustion.
package graphidx

import (
	"sort"

	"github.com/agrama/agrama/internal/store"
)

// Edge is a directed, labeled link between two nodes.
type Edge struct {
	From, To, Relation string
}

// Index computes reachability over a directed graph built from link
// records. It does not own the edges itself; Reachable and MapGraph each
// take a store to read live `_link:` keys from, so the graph is always
// current with the latest LINK writes.
type Index struct{}

// New creates a graph reachability index. Index is stateless: all graph
// data lives in the store's `_link:` keys, read fresh on every call.
func New() *Index {
	return &Index{}
}

// adjacency builds an outgoing-edge map from every `_link:` key in s.
func adjacency(s *store.Store) map[string][]Edge {
	adj := make(map[string][]Edge)
	for _, key := range s.Keys(store.LinkPrefix) {
		from, rel, to, ok := store.ParseLinkKey(key)
		if !ok {
			continue
		}
		adj[from] = append(adj[from], Edge{From: from, To: to, Relation: rel})
	}
	return adj
}

// Reachable runs a bounded-distance BFS from starts over s's link graph,
// returning a map from reached node to its shortest distance (in hops)
// from the nearest starting node, for every node within maxHops. Starting
// nodes themselves have distance 0. Score is derived separately via
// Score(distance).
func Reachable(s *store.Store, starts []string, maxHops int) map[string]int {
	adj := adjacency(s)

	dist := make(map[string]int, len(starts))
	frontier := make([]string, 0, len(starts))
	for _, n := range starts {
		if _, seen := dist[n]; !seen {
			dist[n] = 0
			frontier = append(frontier, n)
		}
	}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, n := range frontier {
			for _, e := range adj[n] {
				if _, seen := dist[e.To]; !seen {
					dist[e.To] = hop + 1
					next = append(next, e.To)
				}
			}
		}
		frontier = next
	}

	return dist
}

// Score converts a hop distance into a graph sub-score: 1/(1+distance).
func Score(distance int) float64 {
	return 1.0 / float64(1+distance)
}

// MapGraph returns the bounded-hop subgraph around a single node: every
// node reachable within maxHops, plus the edges connecting them, used by
// the LINK primitive's optional map_graph option.
type Subgraph struct {
	Nodes []string
	Edges []Edge
}

// MapGraph computes the bounded-hop subgraph rooted at node.
func MapGraph(s *store.Store, node string, maxHops int) Subgraph {
	adj := adjacency(s)
	dist := Reachable(s, []string{node}, maxHops)

	nodes := make([]string, 0, len(dist))
	for n := range dist {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	inSet := make(map[string]bool, len(dist))
	for n := range dist {
		inSet[n] = true
	}

	var edges []Edge
	for _, n := range nodes {
		for _, e := range adj[n] {
			if inSet[e.To] {
				edges = append(edges, e)
			}
		}
	}

	return Subgraph{Nodes: nodes, Edges: edges}
}
