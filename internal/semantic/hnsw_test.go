package semantic

import (
	"math"
	"math/rand"
	"testing"
)

func randomUnitVector(r *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	var norm float64
	for i := range v {
		v[i] = float32(r.NormFloat64())
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func TestInsertAndSearchFindsSelf(t *testing.T) {
	ix, err := New(Params{Dim: 8, M: 4, EfConstruction: 32, Seed: 42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := rand.New(rand.NewSource(7))
	vecs := make(map[string][]float32)
	for i := 0; i < 50; i++ {
		id := string(rune('a' + i%26))
		v := randomUnitVector(r, 8)
		vecs[id] = v
		if err := ix.Insert(id, v); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	for id, v := range vecs {
		results, err := ix.Search(v, 5, 32)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		found := false
		for _, r := range results {
			if r.ID == id {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Search for %s's own vector did not return itself among top 5", id)
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix, _ := New(Params{Dim: 4, M: 4})
	results, err := ix.Search([]float32{1, 0, 0, 0}, 5, 16)
	if err != nil {
		t.Fatalf("Search on empty index returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results on empty index, got %d", len(results))
	}
}

func TestDimensionMismatch(t *testing.T) {
	ix, _ := New(Params{Dim: 4, M: 4})
	if err := ix.Insert("a", []float32{1, 2, 3}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	ix.Insert("b", []float32{1, 0, 0, 0})
	if _, err := ix.Search([]float32{1, 2}, 1, 8); err == nil {
		t.Fatal("expected dimension mismatch error on search")
	}
}

func TestDegreeCapRespected(t *testing.T) {
	ix, err := New(Params{Dim: 4, M: 2, EfConstruction: 16, Seed: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 40; i++ {
		ix.Insert(string(rune('a'+i)), randomUnitVector(r, 4))
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, n := range ix.nodes {
		for layer, conns := range n.connections {
			cap := ix.params.M
			if layer == 0 {
				cap = ix.m0()
			}
			if len(conns) > cap {
				t.Errorf("node %s layer %d has %d connections, want <= %d", n.id, layer, len(conns), cap)
			}
		}
	}
}

func TestBidirectionalEdges(t *testing.T) {
	ix, _ := New(Params{Dim: 4, M: 3, EfConstruction: 16, Seed: 5})
	r := rand.New(rand.NewSource(13))
	for i := 0; i < 20; i++ {
		ix.Insert(string(rune('a'+i)), randomUnitVector(r, 4))
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for from, n := range ix.nodes {
		for layer, conns := range n.connections {
			for _, to := range conns {
				reciprocal := false
				for _, back := range ix.nodes[to].connections[layer] {
					if int(back) == from {
						reciprocal = true
						break
					}
				}
				if !reciprocal {
					t.Errorf("edge %s->%s at layer %d not bidirectional", n.id, ix.nodes[to].id, layer)
				}
			}
		}
	}
}

func TestMatryoshkaLadderValidation(t *testing.T) {
	if _, err := New(Params{Dim: 8, MatryoshkaDims: []int{4, 2}}); err == nil {
		t.Fatal("expected error for non-ascending ladder")
	}
	if _, err := New(Params{Dim: 8, MatryoshkaDims: []int{4, 16}}); err == nil {
		t.Fatal("expected error for ladder entry exceeding full dimension")
	}
	if _, err := New(Params{Dim: 8, MatryoshkaDims: []int{2, 4, 8}}); err != nil {
		t.Fatalf("valid ladder rejected: %v", err)
	}
}

func TestBulkInsertMatchesSequential(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	items := make([]Item, 30)
	for i := range items {
		items[i] = Item{ID: string(rune('a' + i)), Vector: randomUnitVector(r, 6)}
	}

	seq, _ := New(Params{Dim: 6, M: 4, EfConstruction: 32, Seed: 1})
	for _, it := range items {
		seq.Insert(it.ID, it.Vector)
	}

	bulk, _ := New(Params{Dim: 6, M: 4, EfConstruction: 32, Seed: 1})
	if err := bulk.BulkInsert(items); err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}

	if bulk.Len() != seq.Len() {
		t.Fatalf("bulk.Len() = %d, want %d", bulk.Len(), seq.Len())
	}

	for _, it := range items {
		res, err := bulk.Search(it.Vector, 3, 16)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(res) == 0 {
			t.Errorf("bulk search for %s returned nothing", it.ID)
		}
	}
}
