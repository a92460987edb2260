// Package histogram implements a fixed-capacity ring buffer of float32
// values with an always-accurate O(1) running average, and min/max
// recomputed lazily only when the value rolling off capacity was not
// strictly inside the known (min, max) range. Adapted from
// original_source/NowSoundLibShared/Histogram.{h,cpp}, and grounded for Go
// texture on the teacher's RMSMeter in pkg/dsp/analysis/meters.go, which
// keeps the same kind of O(1) running-sum ring buffer for a real-time
// meter.
package histogram

import "github.com/nowsound/engine/pkg/contract"

// Histogram tracks capacity-bounded statistics over a stream of float32
// values. Average is always available in O(1); Min and Max are recomputed
// from scratch only when necessary. Not safe for concurrent use — per
// spec.md §5, each Histogram instance belongs to one analysis pipeline on
// the control thread.
type Histogram struct {
	capacity    int
	values      []float32
	size        int
	index       int
	min, max    float32
	total       float32
	average     float32
	minMaxKnown bool
}

// New constructs a Histogram with the given fixed capacity.
func New(capacity int) *Histogram {
	contract.Require(capacity > 0, "histogram: capacity must be positive")
	return &Histogram{capacity: capacity, values: make([]float32, capacity)}
}

// Add appends a single value, evicting the oldest value once at capacity.
func (h *Histogram) Add(value float32) {
	h.addImpl(value)
}

// AddAll appends every value in data, taking the absolute value of each
// first if absoluteValue is set (used for tracking peak amplitude
// regardless of sign).
func (h *Histogram) AddAll(data []float32, absoluteValue bool) {
	for _, v := range data {
		if absoluteValue && v < 0 {
			v = -v
		}
		h.addImpl(v)
	}
}

func (h *Histogram) addImpl(value float32) {
	if h.size == 0 {
		h.values[0] = value
		h.size, h.index = 1, 1
		h.min, h.max, h.total = value, value, value
		h.minMaxKnown = true
	} else {
		atCapacity := h.size == h.capacity
		if atCapacity {
			h.index = h.index % h.size
			oldValue := h.values[h.index]
			h.total -= oldValue
			// Evicting a value strictly inside the known (min, max) range
			// leaves both bounds valid. Evicting a value equal to min or max
			// may remove the sole extreme, so min/max are marked unknown.
			h.minMaxKnown = h.minMaxKnown && oldValue > h.min && oldValue < h.max
		} else {
			h.size++
		}

		h.values[h.index] = value
		h.total += value
		if value < h.min {
			h.min = value
		} else if value > h.max {
			h.max = value
		}

		h.index++
	}

	h.average = h.total / float32(h.size)
}

func (h *Histogram) ensureMinMaxKnown() {
	if h.minMaxKnown || h.size == 0 {
		return
	}
	h.min, h.max = h.values[0], h.values[0]
	for i := 1; i < h.size; i++ {
		if h.values[i] < h.min {
			h.min = h.values[i]
		}
		if h.values[i] > h.max {
			h.max = h.values[i]
		}
	}
	h.minMaxKnown = true
}

// Min returns the minimum value currently in the histogram, recomputing if
// necessary.
func (h *Histogram) Min() float32 {
	h.ensureMinMaxKnown()
	return h.min
}

// Max returns the maximum value currently in the histogram, recomputing if
// necessary.
func (h *Histogram) Max() float32 {
	h.ensureMinMaxKnown()
	return h.max
}

// Average returns the running average in O(1).
func (h *Histogram) Average() float32 { return h.average }

// Size returns the number of values currently held (capped at capacity).
func (h *Histogram) Size() int { return h.size }

// Capacity returns the histogram's fixed capacity.
func (h *Histogram) Capacity() int { return h.capacity }
