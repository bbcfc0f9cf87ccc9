package synth

import (
	"github.com/cwbudde/algo-dsp/dsp/effects"

	"github.com/cwbudde/algo-synth/dsp"
)

// ReverbParams is the reverb control contract; every field is in [0, 1].
type ReverbParams struct {
	RoomSize float32
	Damping  float32
	Wet      float32
	Dry      float32
	Width    float32
	Freeze   bool
}

// Scaling between the normalized controls and the comb network, matching the
// classic Freeverb tuning.
const (
	reverbRoomScale    = 0.28
	reverbRoomOffset   = 0.7
	reverbDampScale    = 0.4
	reverbWetScale     = 3.0
	reverbDryScale     = 2.0
	reverbInputGain    = 0.015
	reverbStereoSpread = 23
	reverbRefRate      = 44100.0
)

// Reverb adapts two algo-dsp Freeverb-style reverbs into a stereo reverb with
// width control. The right network hears its input a few samples late so the two
// tails decorrelate.
type Reverb struct {
	left, right *effects.Reverb
	spread      *dsp.DelayLine
	spreadLen   int

	params     ReverbParams
	wet1, wet2 float64
	dry        float64
}

// NewReverb creates a reverb with default controls.
func NewReverb() *Reverb {
	r := &Reverb{
		left:  effects.NewReverb(),
		right: effects.NewReverb(),
	}
	for _, n := range []*effects.Reverb{r.left, r.right} {
		n.SetWet(1)
		n.SetDry(0)
	}
	r.Prepare(reverbRefRate)
	r.SetParameters(ReverbParams{RoomSize: 0.5, Damping: 0.5, Wet: 0.33, Dry: 0.4, Width: 1})
	return r
}

// Prepare sizes the stereo spread delay for sampleRate and clears the tails.
func (r *Reverb) Prepare(sampleRate float64) {
	r.spreadLen = int(reverbStereoSpread*sampleRate/reverbRefRate + 0.5)
	if r.spreadLen < 1 {
		r.spreadLen = 1
	}
	r.spread = dsp.NewDelayLine(r.spreadLen + 1)
	r.Reset()
}

// SetParameters applies new controls. Values are clamped to [0, 1].
func (r *Reverb) SetParameters(p ReverbParams) {
	p.RoomSize = clampf(p.RoomSize, 0, 1)
	p.Damping = clampf(p.Damping, 0, 1)
	p.Wet = clampf(p.Wet, 0, 1)
	p.Dry = clampf(p.Dry, 0, 1)
	p.Width = clampf(p.Width, 0, 1)
	r.params = p

	wet := float64(p.Wet) * reverbWetScale
	width := float64(p.Width)
	r.wet1 = 0.5 * wet * (1 + width)
	r.wet2 = 0.5 * wet * (1 - width)
	r.dry = float64(p.Dry) * reverbDryScale

	feedback := float64(p.RoomSize)*reverbRoomScale + reverbRoomOffset
	damp := float64(p.Damping) * reverbDampScale
	gain := reverbInputGain
	if p.Freeze {
		feedback, damp, gain = 1, 0, 0
	}
	for _, n := range []*effects.Reverb{r.left, r.right} {
		n.SetRoomSize(feedback)
		n.SetDamp(damp)
		n.SetGain(gain)
	}
}

// Parameters returns the clamped controls in use.
func (r *Reverb) Parameters() ReverbParams { return r.params }

// Process runs the first n samples of a mono or stereo block in place.
func (r *Reverb) Process(channels [][]float32, n int) {
	switch len(channels) {
	case 0:
		return
	case 1:
		r.processMono(channels[0][:n])
	default:
		r.processStereo(channels[0][:n], channels[1][:n])
	}
}

func (r *Reverb) processMono(buf []float32) {
	for i, x := range buf {
		in := float64(x)
		wet := r.left.ProcessSample(in)
		buf[i] = float32(wet*r.wet1 + in*r.dry)
	}
}

func (r *Reverb) processStereo(left, right []float32) {
	for i := range left {
		l := float64(left[i])
		rr := float64(right[i])
		in := l + rr

		r.spread.Write(float32(in))
		wetL := r.left.ProcessSample(in)
		wetR := r.right.ProcessSample(float64(r.spread.ReadInt(r.spreadLen + 1)))

		left[i] = float32(wetL*r.wet1 + wetR*r.wet2 + l*r.dry)
		right[i] = float32(wetR*r.wet1 + wetL*r.wet2 + rr*r.dry)
	}
}

// Reset clears both tails.
func (r *Reverb) Reset() {
	r.left.Reset()
	r.right.Reset()
	if r.spread != nil {
		r.spread.Reset()
	}
}
