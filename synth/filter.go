package synth

import (
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"
)

// FilterOrder is the Butterworth order of both the high-pass and low-pass stage.
const FilterOrder = 4

// Cutoff limits in Hz.
const (
	MinCutoff = 20.0
	MaxCutoff = 20000.0
)

// FilterChain is a per-channel high-pass followed by a low-pass, both Butterworth
// cascades designed by algo-dsp. Coefficients are only redesigned when a cutoff
// or the sample rate changes; section state survives redesigns.
type FilterChain struct {
	sampleRate float64
	highPass   []*biquad.Chain
	lowPass    []*biquad.Chain
	scratch    []float64

	hpCutoff float64
	lpCutoff float64
}

// NewFilterChain creates an unprepared filter chain.
func NewFilterChain() *FilterChain {
	return &FilterChain{hpCutoff: MinCutoff, lpCutoff: MaxCutoff}
}

// Prepare allocates per-channel cascades and a float64 scratch buffer of
// maxBlockSize samples, then designs coefficients for the current cutoffs.
func (f *FilterChain) Prepare(sampleRate float64, maxBlockSize, numChannels int) {
	f.sampleRate = sampleRate
	f.scratch = make([]float64, maxBlockSize)
	f.highPass = make([]*biquad.Chain, numChannels)
	f.lowPass = make([]*biquad.Chain, numChannels)

	hp := pass.ButterworthHP(f.clampCutoff(f.hpCutoff), FilterOrder, sampleRate)
	lp := pass.ButterworthLP(f.clampCutoff(f.lpCutoff), FilterOrder, sampleRate)
	for ch := 0; ch < numChannels; ch++ {
		f.highPass[ch] = biquad.NewChain(hp)
		f.lowPass[ch] = biquad.NewChain(lp)
	}
}

// SetCutoffs updates both cutoffs in Hz. It reports whether any coefficients were
// redesigned.
func (f *FilterChain) SetCutoffs(highPassHz, lowPassHz float64) bool {
	changed := false
	if highPassHz != f.hpCutoff {
		f.hpCutoff = highPassHz
		coeffs := pass.ButterworthHP(f.clampCutoff(highPassHz), FilterOrder, f.sampleRate)
		for _, c := range f.highPass {
			c.UpdateCoefficients(coeffs, 1)
		}
		changed = true
	}
	if lowPassHz != f.lpCutoff {
		f.lpCutoff = lowPassHz
		coeffs := pass.ButterworthLP(f.clampCutoff(lowPassHz), FilterOrder, f.sampleRate)
		for _, c := range f.lowPass {
			c.UpdateCoefficients(coeffs, 1)
		}
		changed = true
	}
	return changed
}

// Cutoffs returns the high-pass and low-pass cutoffs in Hz as last set.
func (f *FilterChain) Cutoffs() (highPassHz, lowPassHz float64) {
	return f.hpCutoff, f.lpCutoff
}

// Process filters the first n samples of each channel in place.
func (f *FilterChain) Process(channels [][]float32, n int) {
	if n > len(f.scratch) {
		n = len(f.scratch)
	}
	buf := f.scratch[:n]
	for ch, samples := range channels {
		if ch >= len(f.highPass) {
			return
		}
		for i := range buf {
			buf[i] = float64(samples[i])
		}
		f.highPass[ch].ProcessBlock(buf)
		f.lowPass[ch].ProcessBlock(buf)
		for i, v := range buf {
			samples[i] = float32(v)
		}
	}
}

// Reset clears the state of every section.
func (f *FilterChain) Reset() {
	for ch := range f.highPass {
		f.highPass[ch].Reset()
		f.lowPass[ch].Reset()
	}
}

// clampCutoff keeps the design frequency inside the audible range and below
// Nyquist, where the bilinear design stays stable.
func (f *FilterChain) clampCutoff(hz float64) float64 {
	hi := MaxCutoff
	if nyq := 0.49 * f.sampleRate; nyq > 0 && nyq < hi {
		hi = nyq
	}
	return core.Clamp(hz, MinCutoff, hi)
}
