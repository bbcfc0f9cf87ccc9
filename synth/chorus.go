package synth

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp"
)

// Chorus timing in seconds. The longest modulated delay is the base delay plus a
// full sweep, which fixes the delay line capacity.
const (
	ChorusBaseDelay = 0.005
	ChorusMaxSweep  = 0.050
	chorusMaxDelay  = ChorusBaseDelay + ChorusMaxSweep
)

// Chorus parameter limits.
const (
	MinChorusRate     = 0.1
	MaxChorusRate     = 10.0
	MaxChorusFeedback = 0.95
)

// ChorusParams groups the chorus controls.
type ChorusParams struct {
	Rate     float32
	Depth    float32
	Feedback float32
	Mix      float32
}

// Chorus is a stereo modulated-delay chorus. Both channels follow the same LFO
// but keep their own delay line and feedback path. Prepare must be called before
// Process.
type Chorus struct {
	sampleRate float64
	lines      [2]*dsp.DelayLine

	rate     float32
	depth    float32
	feedback float32
	mix      float32

	lfoPhase     float32
	lfoIncrement float32
}

// NewChorus creates a chorus with the plugin defaults.
func NewChorus() *Chorus {
	return &Chorus{
		sampleRate: 44100,
		rate:       0.5,
		depth:      0.5,
		feedback:   0.3,
		mix:        0.5,
	}
}

// Prepare sizes both delay lines for sampleRate and clears all state.
func (c *Chorus) Prepare(sampleRate float64) {
	c.sampleRate = sampleRate
	for i := range c.lines {
		c.lines[i] = dsp.NewDelayLineForTime(sampleRate, chorusMaxDelay)
	}
	c.lfoPhase = 0
	c.updateLFO()
}

// SetRate sets the LFO rate in Hz, clamped to [0.1, 10].
func (c *Chorus) SetRate(hz float32) {
	c.rate = clampf(hz, MinChorusRate, MaxChorusRate)
	c.updateLFO()
}

// SetDepth sets the sweep depth in [0, 1].
func (c *Chorus) SetDepth(depth float32) { c.depth = clampf(depth, 0, 1) }

// SetFeedback sets the delay feedback, capped at 0.95 so the loop gain stays
// below unity.
func (c *Chorus) SetFeedback(fb float32) { c.feedback = clampf(fb, 0, MaxChorusFeedback) }

// SetMix sets the wet/dry balance in [0, 1].
func (c *Chorus) SetMix(mix float32) { c.mix = clampf(mix, 0, 1) }

// SetParameters applies all four controls.
func (c *Chorus) SetParameters(p ChorusParams) {
	c.SetRate(p.Rate)
	c.SetDepth(p.Depth)
	c.SetFeedback(p.Feedback)
	c.SetMix(p.Mix)
}

// Rate returns the LFO rate in Hz.
func (c *Chorus) Rate() float32 { return c.rate }

// Depth returns the sweep depth.
func (c *Chorus) Depth() float32 { return c.depth }

// Feedback returns the feedback gain.
func (c *Chorus) Feedback() float32 { return c.feedback }

// Mix returns the wet/dry balance.
func (c *Chorus) Mix() float32 { return c.mix }

// Process runs the first n samples of up to two channels in place.
func (c *Chorus) Process(channels [][]float32, n int) {
	numChannels := len(channels)
	if numChannels > len(c.lines) {
		numChannels = len(c.lines)
	}
	sr := float32(c.sampleRate)
	dry := 1 - c.mix

	for i := 0; i < n; i++ {
		lfo := float32(math.Sin(twoPi * float64(c.lfoPhase)))
		c.lfoPhase += c.lfoIncrement
		if c.lfoPhase >= 1 {
			c.lfoPhase -= 1
		}

		delay := (ChorusBaseDelay + c.depth*ChorusMaxSweep*0.5*(lfo+1)) * sr

		for ch := 0; ch < numChannels; ch++ {
			line := c.lines[ch]
			x := channels[ch][i]
			delayed := line.Read(delay)
			line.Write(dsp.FlushDenormals(x + delayed*c.feedback))
			channels[ch][i] = x*dry + delayed*c.mix
		}
	}
}

// Reset clears the delay lines and rewinds the LFO.
func (c *Chorus) Reset() {
	for _, l := range c.lines {
		if l != nil {
			l.Reset()
		}
	}
	c.lfoPhase = 0
}

func (c *Chorus) updateLFO() {
	if c.sampleRate <= 0 {
		c.lfoIncrement = 0
		return
	}
	c.lfoIncrement = c.rate / float32(c.sampleRate)
}
