package semantic

import "github.com/agrama/agrama/internal/agerr"

// Item is one (id, vector) pair for bulk construction.
type Item struct {
	ID     string
	Vector []float32
}

// BulkInsert adds every item to the index, grouping by assigned level and
// processing the highest level first so each insertion can use the graph
// structure already built at its own layer. The resulting graph satisfies
// the same adjacency invariants
// (bidirectional edges, degree caps) as sequential Insert calls, though the
// exact edges chosen may differ since level assignment and candidate
// search both depend on insertion order.
func (ix *Index) BulkInsert(items []Item) error {
	for _, it := range items {
		if len(it.Vector) != ix.params.Dim {
			return agerr.DimensionMismatch(ix.params.Dim, len(it.Vector))
		}
	}

	ix.mu.Lock()
	levels := make([]int, len(items))
	for i := range items {
		levels[i] = ix.randomLevel()
	}
	ix.mu.Unlock()

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sortByLevelDesc(order, levels)

	for _, i := range order {
		if err := ix.insertAtLevel(items[i].ID, items[i].Vector, levels[i]); err != nil {
			return err
		}
	}
	return nil
}

func sortByLevelDesc(order, levels []int) {
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && levels[order[j-1]] < levels[order[j]] {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}
}

// insertAtLevel is Insert with a pre-drawn level, used by BulkInsert so
// each node's level is fixed before the batch starts grouping.
func (ix *Index) insertAtLevel(id string, vector []float32, level int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, ok := ix.byID[id]; ok {
		ix.replaceLocked(existing, vector)
		return nil
	}

	block := ix.embedPool.Acquire()
	copy(block.Data(), vector)

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
