// Package semantic implements the HNSW semantic index over Matryoshka
// multi-precision embeddings.
//
// The index is in-process and dependency-free, trading a round trip to
// an external vector database for sub-millisecond in-memory search. Each
// node stores its own maxLayer rather than deriving it by a layer scan,
// so looking up a node's top level is O(1) instead of O(layers).
package semantic

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/poolmem"
)

// Params configures an Index at construction. Zero Params is invalid; use
// DefaultParams as a starting point.
type Params struct {
	Dim            int
	M              int // max connections per non-zero layer
	EfConstruction int
	Seed           int64
	// MatryoshkaDims lists valid truncation prefixes in ascending order;
	// every entry must be <= Dim. Empty means no ladder (full precision
	// only).
	MatryoshkaDims []int
}

// DefaultParams returns reasonable defaults for a given embedding
// dimension.
func DefaultParams(dim int) Params {
	return Params{
		Dim:            dim,
		M:              16,
		EfConstruction: 200,
		Seed:           1,
	}
}

// node is one HNSW graph node. maxLayer is cached on the node rather than
// derived by scanning connections, so looking up a node's top level is
// O(1).
type node struct {
	id          string
	vector      *poolmem.AlignedBlock
	maxLayer    int
	connections [][]uint32 // connections[layer] = neighbor indices into Index.nodes
}

// Index is an HNSW approximate-nearest-neighbor graph over cosine
// similarity, with optional Matryoshka prefiltering.
type Index struct {
	mu sync.RWMutex

	params Params
	mL     float64 // level-assignment decay parameter, 1/ln(2)
	rng    *rand.Rand

	nodes    []*node
	byID     map[string]int
	entry    int // index into nodes of the current entry point, -1 if empty
	embedPool *poolmem.EmbeddingPool
}

// New creates an empty Index. Fails validation if p.MatryoshkaDims is not
// ascending or any entry exceeds p.Dim.
func New(p Params) (*Index, error) {
	if p.Dim <= 0 {
		return nil, agerr.Withf(agerr.KindValidation, "invalid_dimension", "dim must be positive, got %d", p.Dim)
	}
	if p.M <= 0 {
		p.M = 16
	}
	if p.EfConstruction <= 0 {
		p.EfConstruction = 200
	}
	prev := 0
	for _, d := range p.MatryoshkaDims {
		if d <= prev {
			return nil, agerr.Withf(agerr.KindValidation, "invalid_matryoshka_ladder", "matryoshka dims must be strictly ascending, got %v", p.MatryoshkaDims)
		}
		if d > p.Dim {
			return nil, agerr.Withf(agerr.KindValidation, "invalid_matryoshka_ladder", "matryoshka dim %d exceeds full dimension %d", d, p.Dim)
		}
		prev = d
	}

	return &Index{
		params:    p,
		mL:        1 / math.Log(2),
		rng:       rand.New(rand.NewSource(p.Seed)),
		byID:      make(map[string]int),
		entry:     -1,
		embedPool: poolmem.NewEmbeddingPool(p.Dim, 0),
	}, nil
}

// m0 is the layer-0 connection cap, conventionally 2M.
func (ix *Index) m0() int { return 2 * ix.params.M }

func (ix *Index) capForLayer(layer int) int {
	if layer == 0 {
		return ix.m0()
	}
	return ix.params.M
}

// randomLevel draws a level from the exponential-decay distribution with
// parameter mL, giving expected O(log N) layer depth.
func (ix *Index) randomLevel() int {
	r := ix.rng.Float64()
	if r <= 0 {
		r = 1e-12
	}
	return int(math.Floor(-math.Log(r) * ix.mL))
}

// Insert adds vector under id, replacing any prior entry for the same id.
// vector must have length ix.params.Dim.
func (ix *Index) Insert(id string, vector []float32) error {
	if len(vector) != ix.params.Dim {
		return agerr.DimensionMismatch(ix.params.Dim, len(vector))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, ok := ix.byID[id]; ok {
		ix.replaceLocked(existing, vector)
		return nil
	}

	block := ix.embedPool.Acquire()
	copy(block.Data(), vector)

	level := ix.randomLevel()
	n := &node{
		id:          id,
		vector:      block,
		maxLayer:    level,
		connections: make([][]uint32, level+1),
	}
	idx := uint32(len(ix.nodes))
	ix.nodes = append(ix.nodes, n)
	ix.byID[id] = int(idx)

	if ix.entry == -1 {
		ix.entry = int(idx)
		return nil
	}

	ix.connectLocked(idx, level)

	if level > ix.nodes[ix.entry].maxLayer {
		ix.entry = int(idx)
	}
	return nil
}

func (ix *Index) replaceLocked(existing int, vector []float32) {
	copy(ix.nodes[existing].vector.Data(), vector)
}

// connectLocked wires a freshly appended node (at index idx, with the given
// level) into the existing graph by running searchLayer at each layer up
// to level and connecting to the closest candidates within the layer's
// cap, pruning the lowest-similarity edge from over-full neighbors.
func (ix *Index) connectLocked(idx uint32, level int) {
	target := ix.nodes[idx].vector.Data()
	entry := uint32(ix.entry)

	// Greedy-descend from the top of the existing graph down to level+1
	// with ef=1 to find a good entry point at the insertion layer.
	for layer := ix.nodes[ix.entry].maxLayer; layer > level; layer-- {
		entry = ix.greedyLocked(entry, target, layer)
	}

	for layer := minInt(level, ix.nodes[ix.entry].maxLayer); layer >= 0; layer-- {
		candidates := ix.searchLayerLocked(target, entry, ix.params.EfConstruction, layer)
		layerCap := ix.capForLayer(layer)
		neighbors := candidates
		if len(neighbors) > layerCap {
			neighbors = neighbors[:layerCap]
		}
		for _, c := range neighbors {
			ix.addEdgeLocked(idx, c.idx, layer)
			ix.addEdgeLocked(c.idx, idx, layer)
			ix.pruneLocked(c.idx, layer)
		}
		if len(candidates) > 0 {
			entry = candidates[0].idx
		}
	}
}

func (ix *Index) addEdgeLocked(from, to uint32, layer int) {
	n := ix.nodes[from]
	if layer > n.maxLayer {
		return
	}
	for _, existing := range n.connections[layer] {
		if existing == to {
			return
		}
	}
	n.connections[layer] = append(n.connections[layer], to)
}

// pruneLocked drops the lowest-similarity edge(s) from node idx at layer
// until its connection count is within cap, maintaining bidirectionality.
func (ix *Index) pruneLocked(idx uint32, layer int) {
	n := ix.nodes[idx]
	layerCap := ix.capForLayer(layer)
	if len(n.connections[layer]) <= layerCap {
		return
	}

	self := n.vector.Data()
	type scored struct {
		nb  uint32
		sim float32
	}
	scored_ := make([]scored, len(n.connections[layer]))
	for i, nb := range n.connections[layer] {
		scored_[i] = scored{nb, cosine(self, ix.nodes[nb].vector.Data())}
	}
	sort.Slice(scored_, func(i, j int) bool { return scored_[i].sim > scored_[j].sim })
	scored_ = scored_[:layerCap]

	kept := make([]uint32, len(scored_))
	keptSet := make(map[uint32]bool, len(scored_))
	for i, s := range scored_ {
		kept[i] = s.nb
		keptSet[s.nb] = true
	}

	dropped := make([]uint32, 0)
	for _, nb := range n.connections[layer] {
		if !keptSet[nb] {
			dropped = append(dropped, nb)
		}
	}
	n.connections[layer] = kept

	for _, d := range dropped {
		removeEdgeLocked(ix.nodes[d], idx, layer)
	}
}

func removeEdgeLocked(n *node, target uint32, layer int) {
	if layer > n.maxLayer {
		return
	}
	out := n.connections[layer][:0]
	for _, nb := range n.connections[layer] {
		if nb != target {
			out = append(out, nb)
		}
	}
	n.connections[layer] = out
}

// greedyLocked performs a single-step (ef=1) greedy descent from entry
// toward target at the given layer, returning the closest node found.
func (ix *Index) greedyLocked(entry uint32, target []float32, layer int) uint32 {
	best := entry
	bestSim := cosine(target, ix.nodes[entry].vector.Data())
	improved := true
	for improved {
		improved = false
		for _, nb := range ix.nodes[best].connections[layer] {
			sim := cosine(target, ix.nodes[nb].vector.Data())
			if sim > bestSim {
				bestSim = sim
				best = nb
				improved = true
			}
		}
	}
	return best
}

type candidate struct {
	idx uint32
	sim float32
}

// searchLayerLocked is the core beam search: starting from entry, expand
// the ef closest-by-cosine-similarity candidates at the given layer.
// Returned candidates are sorted descending by similarity.
func (ix *Index) searchLayerLocked(target []float32, entry uint32, ef int, layer int) []candidate {
	visited := map[uint32]bool{entry: true}
	entrySim := cosine(target, ix.nodes[entry].vector.Data())
	candidates := []candidate{{entry, entrySim}}
	result := []candidate{{entry, entrySim}}

	for len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].sim > candidates[j].sim })
		c := candidates[0]
		candidates = candidates[1:]

		sort.Slice(result, func(i, j int) bool { return result[i].sim > result[j].sim })
		if len(result) >= ef && c.sim < result[len(result)-1].sim {
			break
		}

		if layer > ix.nodes[c.idx].maxLayer {
			continue
		}
		for _, nb := range ix.nodes[c.idx].connections[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			sim := cosine(target, ix.nodes[nb].vector.Data())
			candidates = append(candidates, candidate{nb, sim})
			result = append(result, candidate{nb, sim})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].sim > result[j].sim })
	if len(result) > ef {
		result = result[:ef]
	}
	return result
}

// Result is one ranked search hit.
type Result struct {
	ID         string
	Similarity float32
}

// Search returns the top k nearest neighbors to query by cosine
// similarity. If a Matryoshka ladder is configured, the coarsest prefix is
// used to prefilter a wider candidate set before re-ranking survivors at
// full precision. Returns an empty slice (not an error) when the index is
// empty.
func (ix *Index) Search(query []float32, k int, ef int) ([]Result, error) {
	if len(query) != ix.params.Dim {
		return nil, agerr.DimensionMismatch(ix.params.Dim, len(query))
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.entry == -1 {
		return nil, nil
	}
	if ef < k {
		ef = k
	}

	searchVec := query
	if len(ix.params.MatryoshkaDims) > 0 {
		coarse := ix.params.MatryoshkaDims[0]
		searchVec = query[:coarse]
	}

	entry := uint32(ix.entry)
	for layer := ix.nodes[ix.entry].maxLayer; layer > 0; layer-- {
		entry = ix.greedyPrefixLocked(entry, searchVec, layer)
	}

	candidates := ix.searchLayerPrefixLocked(searchVec, entry, ef, 0)

	// Re-rank survivors at full precision.
	for i := range candidates {
		candidates[i].sim = cosine(query, ix.nodes[candidates[i].idx].vector.Data())
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].sim > candidates[j].sim })
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{ID: ix.nodes[c.idx].id, Similarity: c.sim}
	}
	return out, nil
}

// greedyPrefixLocked is greedyLocked but comparing against a possibly
// truncated prefix of each node's vector.
func (ix *Index) greedyPrefixLocked(entry uint32, target []float32, layer int) uint32 {
	best := entry
	bestSim := cosine(target, ix.nodes[entry].vector.Data()[:len(target)])
	improved := true
	for improved {
		improved = false
		for _, nb := range ix.nodes[best].connections[layer] {
			sim := cosine(target, ix.nodes[nb].vector.Data()[:len(target)])
			if sim > bestSim {
				bestSim = sim
				best = nb
				improved = true
			}
		}
	}
	return best
}

func (ix *Index) searchLayerPrefixLocked(target []float32, entry uint32, ef int, layer int) []candidate {
	visited := map[uint32]bool{entry: true}
	entrySim := cosine(target, ix.nodes[entry].vector.Data()[:len(target)])
	candidates := []candidate{{entry, entrySim}}
	result := []candidate{{entry, entrySim}}

	for len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].sim > candidates[j].sim })
		c := candidates[0]
		candidates = candidates[1:]

		sort.Slice(result, func(i, j int) bool { return result[i].sim > result[j].sim })
		if len(result) >= ef && c.sim < result[len(result)-1].sim {
			break
		}

		if layer > ix.nodes[c.idx].maxLayer {
			continue
		}
		for _, nb := range ix.nodes[c.idx].connections[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			sim := cosine(target, ix.nodes[nb].vector.Data()[:len(target)])
			candidates = append(candidates, candidate{nb, sim})
			result = append(result, candidate{nb, sim})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].sim > result[j].sim })
	if len(result) > ef {
		result = result[:ef]
	}
	return result
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.nodes)
}

// PoolStats exposes the backing embedding pool's allocation analytics, for
// the performance monitor's memory-ceiling alert.
func (ix *Index) PoolStats() poolmem.Stats {
	return ix.embedPool.Stats()
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
