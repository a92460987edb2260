// Package analysis implements spectral analysis: a windowed Cooley-Tukey
// FFT, the logarithmic bin-bounds rescaling used to drive a visualizer, and
// FrequencyTracker, which accumulates incoming audio into fixed-size FFT
// windows and republishes a rescaled histogram after each window fills.
//
// The FFT core is adapted from the teacher's pkg/dsp/analysis/fft.go
// (windowed Cooley-Tukey with bit-reversal); the bin-bounds geometric
// rescaling is adapted from
// original_source/NowSoundLib/rosetta_fft.{h,cpp} (MakeBinBounds/RescaleFFT),
// which has no equivalent in the teacher.
package analysis

import "math"

// Window identifies a windowing function applied before transforming.
type Window int

const (
	RectangularWindow Window = iota
	HannWindow
	HammingWindow
	BlackmanWindow
	BlackmanHarrisWindow
	KaiserWindow
	FlatTopWindow
)

// FFT performs a windowed forward Fourier transform on fixed-size input,
// reusing its internal buffers across calls to avoid per-block allocation
// (spec.md §5: the audio-adjacent analysis path must not allocate).
type FFT struct {
	size       int
	window     Window
	windowData []float64
	real       []float64
	imag       []float64
	magnitude  []float64
}

// NewFFT constructs an FFT of the given size with precomputed window
// coefficients. size must be a power of two.
func NewFFT(size int, window Window) *FFT {
	f := &FFT{
		size:       size,
		window:     window,
		windowData: make([]float64, size),
		real:       make([]float64, size),
		imag:       make([]float64, size),
		magnitude:  make([]float64, size),
	}
	f.calculateWindow()
	return f
}

func (f *FFT) calculateWindow() {
	n := float64(f.size)
	switch f.window {
	case RectangularWindow:
		for i := range f.windowData {
			f.windowData[i] = 1.0
		}
	case HannWindow:
		for i := range f.windowData {
			f.windowData[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/(n-1.0)))
		}
	case HammingWindow:
		for i := range f.windowData {
			f.windowData[i] = 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/(n-1.0))
		}
	case BlackmanWindow:
		for i := range f.windowData {
			v := 0.42 - 0.5*math.Cos(2.0*math.Pi*float64(i)/(n-1.0)) + 0.08*math.Cos(4.0*math.Pi*float64(i)/(n-1.0))
			f.windowData[i] = math.Max(v, 0)
		}
	case BlackmanHarrisWindow:
		const a0, a1, a2, a3 = 0.35875, 0.48829, 0.14128, 0.01168
		for i := range f.windowData {
			f.windowData[i] = a0 - a1*math.Cos(2.0*math.Pi*float64(i)/(n-1.0)) +
				a2*math.Cos(4.0*math.Pi*float64(i)/(n-1.0)) - a3*math.Cos(6.0*math.Pi*float64(i)/(n-1.0))
		}
	case KaiserWindow:
		const beta = 8.6
		for i := range f.windowData {
			x := 2.0*float64(i)/(n-1.0) - 1.0
			f.windowData[i] = bessel0(beta*math.Sqrt(1.0-x*x)) / bessel0(beta)
		}
	case FlatTopWindow:
		const a0, a1, a2, a3, a4 = 0.21557895, 0.41663158, 0.277263158, 0.083578947, 0.006947368
		for i := range f.windowData {
			v := a0 - a1*math.Cos(2.0*math.Pi*float64(i)/(n-1.0)) +
				a2*math.Cos(4.0*math.Pi*float64(i)/(n-1.0)) - a3*math.Cos(6.0*math.Pi*float64(i)/(n-1.0)) +
				a4*math.Cos(8.0*math.Pi*float64(i)/(n-1.0))
			f.windowData[i] = math.Max(v, 0)
		}
	}
}

// Size returns the FFT's fixed window size.
func (f *FFT) Size() int { return f.size }

// Transform windows input in place into the FFT's internal complex buffers
// and runs the transform. input must be exactly f.size long. After this
// call, Real/Imag hold the transform's output.
func (f *FFT) Transform(input []float64) {
	for i := 0; i < f.size; i++ {
		f.real[i] = input[i] * f.windowData[i]
		f.imag[i] = 0
	}
	f.fft()
}

// Real returns the real components of the most recent transform's output.
func (f *FFT) Real() []float64 { return f.real }

// Imag returns the imaginary components of the most recent transform's
// output.
func (f *FFT) Imag() []float64 { return f.imag }

// Magnitude returns |real+i*imag| for each output bin. The returned slice
// is the FFT's own buffer and is overwritten by the next Magnitude call.
func (f *FFT) Magnitude() []float64 {
	for i := range f.magnitude {
		f.magnitude[i] = math.Hypot(f.real[i], f.imag[i])
	}
	return f.magnitude
}

// fft runs an in-place, breadth-first Cooley-Tukey FFT with bit-reversal
// permutation, directly following the teacher's pkg/dsp/analysis/fft.go
// implementation of the same algorithm.
func (f *FFT) fft() {
	n := f.size
	real, imag := f.real, f.imag

	j := 0
	for i := 0; i < n; i++ {
		if i < j {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
		m := n >> 1
		for m >= 1 && j >= m {
			j -= m
			m >>= 1
		}
		j += m
	}

	for stage := 2; stage <= n; stage <<= 1 {
		theta := -2.0 * math.Pi / float64(stage)
		wReal, wImag := math.Cos(theta), math.Sin(theta)

		for k := 0; k < n; k += stage {
			wTempReal, wTempImag := 1.0, 0.0

			for j := 0; j < stage/2; j++ {
				i1 := k + j
				i2 := i1 + stage/2

				tempReal := wTempReal*real[i2] - wTempImag*imag[i2]
				tempImag := wTempReal*imag[i2] + wTempImag*real[i2]

				real[i2] = real[i1] - tempReal
				imag[i2] = imag[i1] - tempImag
				real[i1] += tempReal
				imag[i1] += tempImag

				oldWReal := wTempReal
				wTempReal = oldWReal*wReal - wTempImag*wImag
				wTempImag = oldWReal*wImag + wTempImag*wReal
			}
		}
	}
}

// bessel0 computes the modified Bessel function of the first kind, order 0,
// used by the Kaiser window.
func bessel0(x float64) float64 {
	if x == 0 {
		return 1
	}
	ax := math.Abs(x)
	if ax < 3.75 {
		y := x / 3.75
		y *= y
		return 1.0 + y*(3.5156229+y*(3.0899424+y*(1.2067492+y*(0.2659732+y*(0.360768e-1+y*0.45813e-2)))))
	}
	y := 3.75 / ax
	return (math.Exp(ax) / math.Sqrt(ax)) * (0.39894228 + y*(0.1328592e-1+y*(0.225319e-2+y*(-0.157565e-2+
		y*(0.916281e-2+y*(-0.2057706e-1+y*(0.2635537e-1+y*(-0.1647633e-1+y*0.392377e-2))))))))
}
