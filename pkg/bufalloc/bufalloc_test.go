package bufalloc

import "testing"

func TestAllocateReusesFreeList(t *testing.T) {
	a := New[float32](128, 2)
	if a.FreeCount() != 2 {
		t.Fatalf("expected 2 free buffers, got %d", a.FreeCount())
	}

	b1 := a.Allocate()
	if a.FreeCount() != 1 {
		t.Fatalf("expected 1 free buffer after allocate, got %d", a.FreeCount())
	}
	if len(b1.Data) != 128 {
		t.Fatalf("expected buffer length 128, got %d", len(b1.Data))
	}

	a.Free(b1)
	if a.FreeCount() != 2 {
		t.Fatalf("expected 2 free buffers after free, got %d", a.FreeCount())
	}
	if a.TotalBufferCount() != 2 {
		t.Fatalf("expected total count unchanged by free, got %d", a.TotalBufferCount())
	}
}

func TestAllocateGrowsPastInitialCount(t *testing.T) {
	a := New[float32](64, 1)
	a.Allocate()
	a.Allocate() // free-list empty, must mint a new one
	if a.TotalBufferCount() != 2 {
		t.Fatalf("expected total count 2, got %d", a.TotalBufferCount())
	}
}

func TestFreeIsIdempotent(t *testing.T) {
	a := New[float32](32, 1)
	b := a.Allocate()
	a.Free(b)
	a.Free(b) // double free must not duplicate the free-list entry
	if a.FreeCount() != 1 {
		t.Fatalf("expected free-list to contain exactly one entry, got %d", a.FreeCount())
	}
}

func TestTotalSpaceAccounting(t *testing.T) {
	a := New[float32](100, 3)
	if a.TotalReservedSpace() != 300 {
		t.Fatalf("expected reserved space 300, got %d", a.TotalReservedSpace())
	}
	if a.TotalFreeListSpace() != 300 {
		t.Fatalf("expected free-list space 300, got %d", a.TotalFreeListSpace())
	}
	a.Allocate()
	if a.TotalFreeListSpace() != 200 {
		t.Fatalf("expected free-list space 200 after one allocate, got %d", a.TotalFreeListSpace())
	}
}
