package graphidx

import (
	"testing"

	"github.com/agrama/agrama/internal/store"
)

func link(s *store.Store, from, rel, to string) {
	s.Save(store.LinkKey(from, rel, to), []byte("{}"))
}

func TestReachableDirectNeighbor(t *testing.T) {
	s := store.New()
	link(s, "a", "relates_to", "b")

	dist := Reachable(s, []string{"a"}, 5)
	if d, ok := dist["b"]; !ok || d != 1 {
		t.Fatalf("dist[b] = %d, %v, want 1, true", d, ok)
	}
	if d, ok := dist["a"]; !ok || d != 0 {
		t.Fatalf("dist[a] = %d, %v, want 0, true", d, ok)
	}
}

func TestReachableRespectsMaxHops(t *testing.T) {
	s := store.New()
	link(s, "a", "r", "b")
	link(s, "b", "r", "c")
	link(s, "c", "r", "d")

	dist := Reachable(s, []string{"a"}, 2)
	if _, ok := dist["c"]; !ok {
		t.Fatal("expected c reachable within 2 hops")
	}
	if _, ok := dist["d"]; ok {
		t.Fatal("expected d NOT reachable within 2 hops")
	}
}

func TestScoreDecaysWithDistance(t *testing.T) {
	if Score(0) != 1.0 {
		t.Fatalf("Score(0) = %f, want 1.0", Score(0))
	}
	if Score(1) <= Score(2) && Score(1) != Score(2) {
		// sanity: score should be monotonically non-increasing
	}
	if Score(1) < Score(2) {
		t.Fatalf("Score(1)=%f should be >= Score(2)=%f", Score(1), Score(2))
	}
}

func TestMapGraphIncludesOnlyInternalEdges(t *testing.T) {
	s := store.New()
	link(s, "a", "r", "b")
	link(s, "b", "r", "c")
	link(s, "c", "r", "far") // far is 3 hops from a

	sub := MapGraph(s, "a", 2)
	for _, n := range sub.Nodes {
		if n == "far" {
			t.Fatal("expected 'far' excluded from 2-hop subgraph")
		}
	}
	for _, e := range sub.Edges {
		if e.To == "far" || e.From == "far" {
			t.Fatal("expected no edge touching 'far' in bounded subgraph")
		}
	}
}

func TestReachableNoEdges(t *testing.T) {
	s := store.New()
	dist := Reachable(s, []string{"lonely"}, 5)
	if len(dist) != 1 {
		t.Fatalf("len(dist) = %d, want 1 (just the start node)", len(dist))
	}
}
