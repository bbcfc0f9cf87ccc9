package analysis

import (
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

const (
	maxFFTSize = 4096
	minFFTSize = 512
	maxFrames  = 64

	// Bins more than this far below the loudest bin of either signal are
	// compared at the floor, so the noise floor does not dominate the distance.
	spectralRangeDB = 90
)

// averageSpectrum returns the Hann-windowed STFT magnitude of x averaged over up
// to maxFrames frames with 50% overlap.
func averageSpectrum(forward func(dst []complex128, src []float64), hann []float64, x []float64) []float64 {
	size := len(hann)
	buf := make([]float64, size)
	spec := make([]complex128, size/2+1)
	avg := make([]float64, size/2)

	frames := 0
	for pos := 0; pos+size <= len(x) && frames < maxFrames; pos += size / 2 {
		for i := range buf {
			buf[i] = x[pos+i] * hann[i]
		}
		forward(spec, buf)
		for k := range avg {
			avg[k] += cmplx.Abs(spec[k])
		}
		frames++
	}
	if frames > 1 {
		scale := 1 / float64(frames)
		for k := range avg {
			avg[k] *= scale
		}
	}
	return avg
}

// spectralRMSEDB is the RMS difference in dB between the averaged magnitude
// spectra of a and b.
func spectralRMSEDB(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	size := fftSizeFor(n, maxFFTSize)
	if size < minFFTSize {
		return 0
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return 0
	}
	hann, err := window.Hann(size)
	if err != nil {
		return 0
	}

	forward := func(dst []complex128, src []float64) { plan.Forward(dst, src) }
	specA := averageSpectrum(forward, hann, a[:n])
	specB := averageSpectrum(forward, hann, b[:n])

	floor := math.Max(linToDB(maxOf(specA[1:])), linToDB(maxOf(specB[1:]))) - spectralRangeDB
	var sum float64
	for k := 1; k < len(specA); k++ {
		d := math.Max(linToDB(specA[k]), floor) - math.Max(linToDB(specB[k]), floor)
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(specA)-1))
}

// fftSizeFor returns the largest power of two not above n or limit.
func fftSizeFor(n, limit int) int {
	size := 1
	for size*2 <= n && size*2 <= limit {
		size *= 2
	}
	return size
}

func maxOf(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if v > m {
			m = v
		}
	}
	return m
}
