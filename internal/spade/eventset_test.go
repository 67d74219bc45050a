package spade

import "testing"

func TestEventSet_ContainsAndCardinality(t *testing.T) {
	es := NewEventSet(0, 5, 255)

	if !es.Contains(0) || !es.Contains(5) || !es.Contains(255) {
		t.Fatal("expected members to be present")
	}
	if es.Contains(1) {
		t.Fatal("expected 1 to be absent")
	}
	if got := es.Cardinality(); got != 3 {
		t.Fatalf("expected cardinality 3, got %d", got)
	}
}

func TestEventSet_IsEmpty(t *testing.T) {
	if !NewEventSet().IsEmpty() {
		t.Fatal("expected empty set")
	}
	if NewEventSet(1).IsEmpty() {
		t.Fatal("expected non-empty set")
	}
}

func TestEventSet_Union(t *testing.T) {
	a := NewEventSet(0, 1)
	b := NewEventSet(1, 2)
	u := a.Union(b)

	if u.Cardinality() != 3 {
		t.Fatalf("expected union cardinality 3, got %d", u.Cardinality())
	}
	if !u.Contains(0) || !u.Contains(1) || !u.Contains(2) {
		t.Fatal("union missing expected members")
	}
	// Operands unchanged.
	if a.Cardinality() != 2 || b.Cardinality() != 2 {
		t.Fatal("union mutated an operand")
	}
}

func TestEventSet_Equal(t *testing.T) {
	a := NewEventSet(1, 2, 3)
	b := NewEventSet(3, 2, 1)
	c := NewEventSet(1, 2)

	if !a.Equal(b) {
		t.Fatal("expected sets with same members to be equal")
	}
	if a.Equal(c) {
		t.Fatal("expected sets with different members to be unequal")
	}
}

func TestEventSet_Subset(t *testing.T) {
	small := NewEventSet(1)
	big := NewEventSet(1, 2, 3)

	if !small.Subset(big) {
		t.Fatal("expected small to be a subset of big")
	}
	if big.Subset(small) {
		t.Fatal("expected big not to be a subset of small")
	}
}

func TestEventSet_Less(t *testing.T) {
	small := NewEventSet(5)
	big := NewEventSet(1, 2)
	sameCardA := NewEventSet(1)
	sameCardB := NewEventSet(2)

	if !small.Less(big) {
		t.Fatal("expected smaller-cardinality set to sort first")
	}
	if !sameCardA.Less(sameCardB) {
		t.Fatal("expected element-wise comparison to break cardinality ties")
	}
}

func TestEventSet_ToSliceAscending(t *testing.T) {
	es := NewEventSet(9, 1, 5)
	got := es.ToSlice()
	want := []int{1, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestEventSet_String(t *testing.T) {
	es := NewEventSet(2, 0, 1)
	if got, want := es.String(), "{0,1,2}"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
