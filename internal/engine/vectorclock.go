package engine

// VectorClock tracks one counter per agent that has written a link,
// letting a future replicated LINK merge causally instead of by wall-clock
// timestamp alone. No replication transport exists in this core; the only
// callers today are Link's local tick and this file's tests.
type VectorClock map[string]uint64

// Tick increments agentID's counter and returns the updated clock. The
// receiver is never mutated in place so callers can safely hand out the
// previous value concurrently.
func (vc VectorClock) Tick(agentID string) VectorClock {
	out := vc.clone()
	out[agentID]++
	return out
}

// Merge returns the component-wise max of vc and other, the standard
// vector-clock join: the result dominates both inputs.
func (vc VectorClock) Merge(other VectorClock) VectorClock {
	out := vc.clone()
	for agent, count := range other {
		if count > out[agent] {
			out[agent] = count
		}
	}
	return out
}

// Dominates reports whether vc happened at or after other on every agent's
// counter, i.e. other is causally subsumed by vc.
func (vc VectorClock) Dominates(other VectorClock) bool {
	for agent, count := range other {
		if vc[agent] < count {
			return false
		}
	}
	return true
}

func (vc VectorClock) clone() VectorClock {
	out := make(VectorClock, len(vc)+1)
	for k, v := range vc {
		out[k] = v
	}
	return out
}
