package join

import "testing"

func TestBagAddCountRemove(t *testing.T) {
	b := newBag()
	x := newSpeciesHandle("x", kindAsync)

	i1 := newInstance(x, 1, nil)
	i2 := newInstance(x, 2, nil)
	b.add(x, i1)
	b.add(x, i2)

	if got := b.countOf(x); got != 2 {
		t.Fatalf("expected 2 pending, got %d", got)
	}

	b.remove(map[InstanceID]struct{}{i1.id: {}})
	if got := b.countOf(x); got != 1 {
		t.Fatalf("expected 1 pending after remove, got %d", got)
	}

	b.remove(map[InstanceID]struct{}{i2.id: {}})
	if got := b.countOf(x); got != 0 {
		t.Fatalf("expected 0 pending after removing all, got %d", got)
	}
	if _, exists := b.pending[x]; exists {
		t.Fatal("expected species entry to be deleted once empty")
	}
}

func TestBagSnapshotReflectsValuesOnly(t *testing.T) {
	b := newBag()
	x := newSpeciesHandle("x", kindAsync)
	y := newSpeciesHandle("y", kindSync)

	b.add(x, newInstance(x, "a", nil))
	b.add(x, newInstance(x, "b", nil))
	b.add(y, newInstance(y, 5, newReplyChannel[int]()))

	snap := b.snapshot()
	if len(snap["x"]) != 2 {
		t.Fatalf("expected 2 values for x, got %v", snap["x"])
	}
	if len(snap["y"]) != 1 || snap["y"][0] != 5 {
		t.Fatalf("expected [5] for y, got %v", snap["y"])
	}
}

func TestBagRemoveIgnoresUnknownIDs(t *testing.T) {
	b := newBag()
	x := newSpeciesHandle("x", kindAsync)
	i1 := newInstance(x, 1, nil)
	b.add(x, i1)

	b.remove(map[InstanceID]struct{}{InstanceID("nonexistent"): {}})
	if got := b.countOf(x); got != 1 {
		t.Fatalf("expected unrelated instance to survive, got count %d", got)
	}
}
