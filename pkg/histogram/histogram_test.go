package histogram

import "testing"

func TestRunningAverage(t *testing.T) {
	h := New(3)
	h.Add(1)
	h.Add(2)
	h.Add(3)
	if h.Average() != 2 {
		t.Fatalf("Average: got %v, want 2", h.Average())
	}

	// Capacity is 3; adding a 4th value evicts the 1.
	h.Add(9)
	if h.Average() != (2.0+3.0+9.0)/3.0 {
		t.Fatalf("Average after eviction: got %v, want %v", h.Average(), (2.0+3.0+9.0)/3.0)
	}
}

func TestMinMaxLazyRecompute(t *testing.T) {
	h := New(3)
	h.Add(5)
	h.Add(1)
	h.Add(9)
	if h.Min() != 1 || h.Max() != 9 {
		t.Fatalf("Min/Max: got %v/%v, want 1/9", h.Min(), h.Max())
	}

	// Evicting 5 (strictly inside (1,9)) must not invalidate known min/max.
	h.Add(4)
	if h.Min() != 1 || h.Max() != 9 {
		t.Fatalf("Min/Max after evicting interior value: got %v/%v, want 1/9", h.Min(), h.Max())
	}

	// Evicting 1 (the min) must force a recompute.
	h.Add(2)
	if h.Min() != 2 {
		t.Fatalf("Min after evicting the min itself: got %v, want 2", h.Min())
	}
}

func TestAddAllAbsoluteValue(t *testing.T) {
	h := New(4)
	h.AddAll([]float32{-3, 2, -1}, true)
	if h.Min() != 1 || h.Max() != 3 {
		t.Fatalf("Min/Max with absoluteValue: got %v/%v, want 1/3", h.Min(), h.Max())
	}
}
