package analysis

import "math"

// BinBounds gives the [lower, upper) bounds of one output histogram bin, in
// terms of fractional indices into an FFT magnitude array.
type BinBounds struct {
	Lower float64
	Upper float64
}

// MakeBinBounds builds a geometric (log-frequency) sequence of binCount
// output bins centered on centralFrequency, with octaveDivisions bins per
// octave (ideally a factor of 12, to land on musical semitones), and
// translates each bin's frequency bounds into fractional FFT-bin-index
// bounds. Adapted directly from
// original_source/NowSoundLib/rosetta_fft.cpp's MakeBinBounds — this is the
// one piece of spec.md §4.6 the prose alone leaves ambiguous, so the
// original's algorithm is authoritative here.
func MakeBinBounds(centralFrequency float64, octaveDivisions int, binCount int, centralBinIndex int, sampleRate float64, fftBinCount int) []BinBounds {
	if centralFrequency <= 0 || octaveDivisions <= 0 || binCount <= 0 ||
		centralBinIndex < 0 || centralBinIndex >= binCount || sampleRate <= 0 || fftBinCount <= 0 {
		panic("analysis: MakeBinBounds called with invalid arguments")
	}

	centralBinFrequencies := make([]float64, binCount)
	centralBinFrequencies[centralBinIndex] = centralFrequency
	binRatio := math.Pow(2, 1.0/float64(octaveDivisions))

	freq := centralFrequency
	for i := centralBinIndex - 1; i >= 0; i-- {
		freq /= binRatio
		centralBinFrequencies[i] = freq
	}
	freq = centralFrequency
	for i := centralBinIndex + 1; i < binCount; i++ {
		freq *= binRatio
		centralBinFrequencies[i] = freq
	}

	bandwidthPerFFTBin := sampleRate / float64(fftBinCount)
	results := make([]BinBounds, binCount)
	lowerBound := 0.0
	interBinRatio := math.Sqrt(binRatio)
	for i := 0; i < binCount; i++ {
		upperBound := centralBinFrequencies[i] * interBinRatio
		results[i] = BinBounds{Lower: lowerBound / bandwidthPerFFTBin, Upper: upperBound / bandwidthPerFFTBin}
		lowerBound = upperBound
	}

	// Force the final bound all the way out to the Nyquist bin, so the
	// histogram's top bin always captures everything above it.
	last := results[len(results)-1]
	results[len(results)-1] = BinBounds{Lower: last.Lower, Upper: float64(fftBinCount) / 2}

	return results
}

// RescaleFFT averages the FFT magnitude data into each bound's output bin,
// weighting the fractional endpoints of each bound's index range. output
// must be the same length as bounds.
func RescaleFFT(bounds []BinBounds, magnitude []float64, output []float32) {
	if len(output) != len(bounds) {
		panic("analysis: RescaleFFT output must match bounds length")
	}

	for i, b := range bounds {
		var count, total float64

		lowerBound := b.Lower
		lowerFloor := int(math.Floor(lowerBound))
		lowerFrac := lowerBound - float64(lowerFloor)
		upperBound := b.Upper
		upperFloor := int(math.Floor(upperBound))
		upperFrac := upperBound - float64(upperFloor)

		if i > 0 {
			value := magnitude[lowerFloor]

			if lowerFloor == upperFloor {
				// The whole bound collapses into a single FFT bin.
				count = upperFrac - lowerFrac
				total = value * count
				upperFrac = 0
			} else {
				count += 1 - lowerFrac
				total += (1 - lowerFrac) * value
				lowerFloor++
			}
		}

		for j := lowerFloor; j < upperFloor; j++ {
			total += magnitude[j]
			count++
		}

		if upperFrac > 0 {
			total += magnitude[upperFloor] * upperFrac
			count += upperFrac
		}

		output[i] = float32(total / count)
	}
}
