// Package bufalloc implements the fixed-length sample-buffer pool described
// in spec.md §4.1, adapted from original_source/NowSoundLib/BufferAllocator.h
// and grounded on the teacher's own fixed-capacity, no-per-block-allocation
// buffer discipline in pkg/dsp/buffer/writeahead.go (pre-size everything up
// front, never allocate on the hot path).
//
// OwningBuf is move-only in the original; Go has no borrow checker, so
// ownership here is a convention enforced by usage discipline (documented at
// each call site) plus the same defensive double-free tolerance the original
// BufferAllocator.Free implements.
package bufalloc

// OwningBuf is a fixed-length buffer exclusively owned by whoever holds it —
// a BufferedSliceStream, or the allocator's own free-list. Transferring an
// OwningBuf (assigning it, appending it to a slice, passing it to Free)
// transfers ownership; the previous holder must not use it again. Unlike
// the original's move-only Buf<T>, Go cannot enforce this statically, so
// callers observe the same discipline §5 requires of the control thread:
// the allocator is only ever touched single-threaded.
type OwningBuf[V any] struct {
	ID   int
	Data []V
}

// Buf is a copyable, non-owning view of an OwningBuf's backing storage. It
// exists as a distinct type (rather than just using []V) to mirror the
// original's Buf<T>/OwningBuf<T> split: a Buf never outlives the stream that
// owns its backing OwningBuf (spec.md §5 "Shared-resource policy").
type Buf[V any] struct {
	Data []V
}

// View returns a Buf borrowing this OwningBuf's storage.
func (o *OwningBuf[V]) View() Buf[V] {
	return Buf[V]{Data: o.Data}
}

// Allocator is a fixed-length, single-type buffer pool with a free-list, per
// spec.md §4.1. It is not required to be thread-safe: per spec.md §5, it is
// only ever touched from the control thread (graph setup, stream trim,
// stream destruction) — the audio callback thread never calls Allocate.
type Allocator[V any] struct {
	bufferLength int
	freeList     []*OwningBuf[V]
	totalCount   int
	nextID       int
}

// New constructs an Allocator and pre-populates its free-list with
// initialCount buffers of bufferLength values each, following
// BufferAllocator's constructor which "prepopulates the free list as a way
// of preallocating" so the audio thread never needs to allocate later.
func New[V any](bufferLength, initialCount int) *Allocator[V] {
	if bufferLength <= 0 {
		panic("bufalloc: bufferLength must be positive")
	}
	if initialCount <= 0 {
		panic("bufalloc: initialCount must be positive")
	}
	a := &Allocator[V]{
		bufferLength: bufferLength,
		nextID:       1, // 0 reserved for "undefined" per spec.md §6 ID convention
	}
	for i := 0; i < initialCount; i++ {
		a.freeList = append(a.freeList, a.newBuffer())
	}
	a.totalCount = initialCount
	return a
}

func (a *Allocator[V]) newBuffer() *OwningBuf[V] {
	buf := &OwningBuf[V]{ID: a.nextID, Data: make([]V, a.bufferLength)}
	a.nextID++
	return buf
}

// BufferLength returns the fixed number of V values per buffer.
func (a *Allocator[V]) BufferLength() int { return a.bufferLength }

// Allocate pops a buffer from the free-list, or mints a fresh zeroed one if
// the free-list is empty; only minting a fresh buffer increments the total
// count.
func (a *Allocator[V]) Allocate() *OwningBuf[V] {
	n := len(a.freeList)
	if n == 0 {
		a.totalCount++
		return a.newBuffer()
	}
	buf := a.freeList[n-1]
	a.freeList = a.freeList[:n-1]
	return buf
}

// Free returns a buffer to the pool. If a buffer with the same backing array
// is already on the free-list, the call is silently dropped — the
// defensive idempotence spec.md §4.1 calls for, matching
// BufferAllocator::Free's linear scan for an existing entry with the same
// Data pointer.
func (a *Allocator[V]) Free(buf *OwningBuf[V]) {
	for _, existing := range a.freeList {
		if sameBacking(existing.Data, buf.Data) {
			return
		}
	}
	a.freeList = append(a.freeList, buf)
}

func sameBacking[V any](a, b []V) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == 0 && len(b) == 0 && &a == &b
	}
	return &a[0] == &b[0]
}

// TotalReservedSpace returns total_count * bufferLength, counted in
// elements of V (not bytes, since Go has no portable sizeof without reflection
// or unsafe.Sizeof per-instantiation; callers scale by their V's size).
func (a *Allocator[V]) TotalReservedSpace() int64 {
	return int64(a.totalCount) * int64(a.bufferLength)
}

// TotalFreeListSpace returns free_count * bufferLength in elements.
func (a *Allocator[V]) TotalFreeListSpace() int64 {
	return int64(len(a.freeList)) * int64(a.bufferLength)
}

// TotalBufferCount returns the number of buffers ever allocated (in use or
// free).
func (a *Allocator[V]) TotalBufferCount() int { return a.totalCount }

// FreeCount returns the number of buffers currently on the free-list.
func (a *Allocator[V]) FreeCount() int { return len(a.freeList) }
