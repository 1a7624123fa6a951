package engine

import "testing"

func TestVectorClockTickIsImmutable(t *testing.T) {
	base := VectorClock{"a": 1}
	next := base.Tick("a")

	if base["a"] != 1 {
		t.Fatalf("Tick mutated receiver: got %d, want 1", base["a"])
	}
	if next["a"] != 2 {
		t.Fatalf("next[a] = %d, want 2", next["a"])
	}
}

func TestVectorClockTickNewAgent(t *testing.T) {
	base := VectorClock{"a": 1}
	next := base.Tick("b")

	if next["a"] != 1 || next["b"] != 1 {
		t.Fatalf("next = %v, want a:1 b:1", next)
	}
}

func TestVectorClockMergeTakesComponentWiseMax(t *testing.T) {
	left := VectorClock{"a": 3, "b": 1}
	right := VectorClock{"a": 1, "b": 5, "c": 2}

	merged := left.Merge(right)

	want := VectorClock{"a": 3, "b": 5, "c": 2}
	for agent, count := range want {
		if merged[agent] != count {
			t.Errorf("merged[%s] = %d, want %d", agent, merged[agent], count)
		}
	}
}

func TestVectorClockDominates(t *testing.T) {
	ahead := VectorClock{"a": 3, "b": 2}
	behind := VectorClock{"a": 2, "b": 2}

	if !ahead.Dominates(behind) {
		t.Fatal("expected ahead to dominate behind")
	}
	if behind.Dominates(ahead) {
		t.Fatal("behind should not dominate ahead")
	}
}

func TestVectorClockDominatesMissingAgentIsZero(t *testing.T) {
	vc := VectorClock{"a": 1}
	other := VectorClock{"b": 0}

	if !vc.Dominates(other) {
		t.Fatal("a zero counter for an unseen agent should be dominated")
	}
}
