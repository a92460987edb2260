package analysis

import "testing"

func TestFrequencyTrackerProducesHistogramAfterFullWindow(t *testing.T) {
	bounds := MakeBinBounds(440, 12, 8, 4, 8000, 32)
	tr := NewFrequencyTracker(bounds, 32)

	ch0 := make([]float64, 32)
	ch1 := make([]float64, 32)
	for i := range ch0 {
		ch0[i] = 1.0
		ch1[i] = 1.0
	}

	tr.Record(ch0, ch1, 32)

	out := make([]float32, len(bounds))
	tr.GetLatestHistogram(out)

	anyNonZero := false
	for _, v := range out {
		if v != 0 {
			anyNonZero = true
		}
	}
	if !anyNonZero {
		t.Error("expected a non-all-zero histogram after a full window of DC input")
	}
}

func TestFrequencyTrackerAccumulatesAcrossMultipleCalls(t *testing.T) {
	bounds := MakeBinBounds(440, 12, 4, 2, 8000, 16)
	tr := NewFrequencyTracker(bounds, 16)

	ch0 := make([]float64, 8)
	ch1 := make([]float64, 8)
	for i := range ch0 {
		ch0[i], ch1[i] = 0.5, 0.5
	}

	// Two half-window Records should together fill exactly one window.
	tr.Record(ch0, ch1, 8)
	tr.Record(ch0, ch1, 8)

	out := make([]float32, len(bounds))
	tr.GetLatestHistogram(out) // must not panic on a fresh, now-filled window
}
