// Package analysis provides audio analysis building blocks used by the
// engine's Measurement processor:
//
// FFT:
//   - Windowed FFT with selectable window functions. The engine's
//     FrequencyTracker does not use it; it runs its own FFT in pkg/analysis.
//
// Level and stereo-field metering:
//   - Peak meter with hold and decay.
//   - Correlation meter for L/R phase relationships.
//
// Example usage:
//
//	// Create a correlation meter
//	corr := analysis.NewCorrelationMeter(1024, 44100)
//	corr.Process(samplesL, samplesR)
//	correlation := corr.GetCorrelation()
//
//	// Create a peak meter
//	peak := analysis.NewPeakMeter(44100)
//	peak.Process(samples)
package analysis
