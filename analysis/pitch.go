package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

const (
	maxPitchFFTSize = 1 << 16
	minPitchHz      = 20.0
)

// Fundamental estimates the dominant frequency of samples in Hz from the peak of
// a Hann-windowed spectrum, refined by parabolic interpolation of the log
// magnitudes around the peak. It returns 0 when the signal is too short or
// silent.
func Fundamental(samples []float64, sampleRate int) float64 {
	size := fftSizeFor(len(samples), maxPitchFFTSize)
	if sampleRate <= 0 || size < minFFTSize {
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

	buf := make([]float64, size)
	for i := range buf {
		buf[i] = samples[i] * hann[i]
	}
	spec := make([]complex128, size/2+1)
	plan.Forward(spec, buf)

	binHz := float64(sampleRate) / float64(size)
	lo := max(1, int(math.Ceil(minPitchHz/binHz)))
	peak, peakMag := 0, 0.0
	for k := lo; k < size/2; k++ {
		if m := cmplx.Abs(spec[k]); m > peakMag {
			peak, peakMag = k, m
		}
	}
	if peak == 0 || peakMag < 1e-9 {
		return 0
	}

	a := linToDB(cmplx.Abs(spec[peak-1]))
	b := linToDB(peakMag)
	c := linToDB(cmplx.Abs(spec[peak+1]))
	offset := 0.0
	if den := a - 2*b + c; den != 0 {
		offset = 0.5 * (a - c) / den
	}
	return (float64(peak) + offset) * binHz
}

// ToneLevel returns the amplitude of the freq component of samples, measured with
// a Goertzel filter. A full-scale sine at freq yields about 1.
func ToneLevel(samples []float64, freq float64, sampleRate int) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("tone level: empty input")
	}
	power, err := spectrum.AnalyzeBlock(samples, freq, float64(sampleRate))
	if err != nil {
		return 0, fmt.Errorf("tone level at %.1f Hz: %w", freq, err)
	}
	if power <= 0 {
		return 0, nil
	}
	return 2 * math.Sqrt(power) / float64(len(samples)), nil
}

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	var p float64
	for _, v := range samples {
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}

// RMS returns the root mean square of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// DBFS converts a linear level to decibels relative to full scale, floored at
// -240 dB.
func DBFS(level float64) float64 { return linToDB(level) }

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20 * math.Log10(x)
}
