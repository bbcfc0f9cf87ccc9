package synth

import (
	"fmt"
	"math"
	"sync/atomic"
)

// ParamID identifies one automatable parameter.
type ParamID int

const (
	ParamGain ParamID = iota
	ParamFrequency
	ParamOscillator
	ParamHighPass
	ParamLowPass
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamReverbRoomSize
	ParamReverbDamping
	ParamReverbWet
	ParamReverbDry
	ParamReverbWidth
	ParamChorusRate
	ParamChorusDepth
	ParamChorusFeedback
	ParamChorusMix
	NumParams
)

// ParamSpec describes the plain range of a parameter. Skew shapes the
// normalized mapping: values below 1 give more of the control travel to the low
// end of the range.
type ParamSpec struct {
	Name     string
	Min      float64
	Max      float64
	Default  float64
	Skew     float64
	Discrete bool
}

var paramSpecs = [NumParams]ParamSpec{
	ParamGain:           {Name: "gain", Min: 0, Max: 1, Default: 0.25, Skew: 1},
	ParamFrequency:      {Name: "frequency", Min: 20, Max: 20000, Default: 440, Skew: 0.3},
	ParamOscillator:     {Name: "oscillator", Min: 0, Max: float64(NumWaveforms - 1), Default: float64(Sine), Skew: 1, Discrete: true},
	ParamHighPass:       {Name: "high_pass", Min: MinCutoff, Max: MaxCutoff, Default: 20, Skew: 0.3},
	ParamLowPass:        {Name: "low_pass", Min: MinCutoff, Max: MaxCutoff, Default: 20000, Skew: 0.3},
	ParamAttack:         {Name: "attack", Min: MinEnvelopeTime, Max: MaxEnvelopeTime, Default: 0.1, Skew: 0.5},
	ParamDecay:          {Name: "decay", Min: MinEnvelopeTime, Max: MaxEnvelopeTime, Default: 0.1, Skew: 0.5},
	ParamSustain:        {Name: "sustain", Min: 0, Max: 1, Default: 0.7, Skew: 1},
	ParamRelease:        {Name: "release", Min: MinEnvelopeTime, Max: MaxEnvelopeTime, Default: 0.3, Skew: 0.5},
	ParamReverbRoomSize: {Name: "reverb_room_size", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	ParamReverbDamping:  {Name: "reverb_damping", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	ParamReverbWet:      {Name: "reverb_wet", Min: 0, Max: 1, Default: 0.33, Skew: 1},
	ParamReverbDry:      {Name: "reverb_dry", Min: 0, Max: 1, Default: 0.4, Skew: 1},
	ParamReverbWidth:    {Name: "reverb_width", Min: 0, Max: 1, Default: 1, Skew: 1},
	ParamChorusRate:     {Name: "chorus_rate", Min: MinChorusRate, Max: MaxChorusRate, Default: 0.5, Skew: 1},
	ParamChorusDepth:    {Name: "chorus_depth", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	ParamChorusFeedback: {Name: "chorus_feedback", Min: 0, Max: MaxChorusFeedback, Default: 0.3, Skew: 1},
	ParamChorusMix:      {Name: "chorus_mix", Min: 0, Max: 1, Default: 0.5, Skew: 1},
}

// Spec returns the range description of id.
func (id ParamID) Spec() ParamSpec {
	if id < 0 || id >= NumParams {
		return ParamSpec{}
	}
	return paramSpecs[id]
}

func (id ParamID) String() string {
	if id < 0 || id >= NumParams {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
	return paramSpecs[id].Name
}

// ParseParamID looks a parameter up by name.
func ParseParamID(name string) (ParamID, error) {
	for id := ParamID(0); id < NumParams; id++ {
		if paramSpecs[id].Name == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}

// Clamp limits v to the plain range of the parameter. NaN maps to the default.
func (s ParamSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}
	if v < s.Min {
		v = s.Min
	} else if v > s.Max {
		v = s.Max
	}
	if s.Discrete {
		v = math.Round(v)
	}
	return v
}

// FromNormalized maps a 0..1 control value to the plain range.
func (s ParamSpec) FromNormalized(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}
	v = math.Max(0, math.Min(1, v))
	if s.Skew != 1 && s.Skew > 0 && v > 0 {
		v = math.Exp(math.Log(v) / s.Skew)
	}
	return s.Clamp(s.Min + (s.Max-s.Min)*v)
}

// ToNormalized maps a plain value to 0..1, inverse of FromNormalized.
func (s ParamSpec) ToNormalized(plain float64) float64 {
	if s.Max <= s.Min {
		return 0
	}
	v := (s.Clamp(plain) - s.Min) / (s.Max - s.Min)
	if s.Skew != 1 && s.Skew > 0 && v > 0 {
		v = math.Pow(v, s.Skew)
	}
	return v
}

// Parameters is the lock-free parameter registry. Control goroutines call Set
// while the audio goroutine reads a Snapshot once per block.
type Parameters struct {
	values [NumParams]atomic.Uint64
}

// NewParameters creates a registry holding the defaults.
func NewParameters() *Parameters {
	p := &Parameters{}
	p.ResetDefaults()
	return p
}

// ResetDefaults stores every default value.
func (p *Parameters) ResetDefaults() {
	for id := ParamID(0); id < NumParams; id++ {
		p.values[id].Store(math.Float64bits(paramSpecs[id].Default))
	}
}

// Set stores a plain value, clamped to the parameter range. Unknown ids are
// ignored.
func (p *Parameters) Set(id ParamID, v float64) {
	if id < 0 || id >= NumParams {
		return
	}
	p.values[id].Store(math.Float64bits(paramSpecs[id].Clamp(v)))
}

// Get returns the plain value of id.
func (p *Parameters) Get(id ParamID) float64 {
	if id < 0 || id >= NumParams {
		return 0
	}
	return math.Float64frombits(p.values[id].Load())
}

// SetNormalized stores a 0..1 control value.
func (p *Parameters) SetNormalized(id ParamID, v float64) {
	if id < 0 || id >= NumParams {
		return
	}
	p.values[id].Store(math.Float64bits(paramSpecs[id].FromNormalized(v)))
}

// Normalized returns the 0..1 control value of id.
func (p *Parameters) Normalized(id ParamID) float64 {
	if id < 0 || id >= NumParams {
		return 0
	}
	return paramSpecs[id].ToNormalized(p.Get(id))
}

// Snapshot reads every parameter once and returns an immutable copy.
func (p *Parameters) Snapshot() ChainSettings {
	var v [NumParams]float64
	for id := range v {
		v[id] = math.Float64frombits(p.values[id].Load())
	}
	return ChainSettings{
		Gain:       float32(v[ParamGain]),
		Frequency:  float32(v[ParamFrequency]),
		Oscillator: Waveform(int(v[ParamOscillator])),
		HighPass:   float32(v[ParamHighPass]),
		LowPass:    float32(v[ParamLowPass]),
		Envelope: EnvelopeParams{
			Attack:  float32(v[ParamAttack]),
			Decay:   float32(v[ParamDecay]),
			Sustain: float32(v[ParamSustain]),
			Release: float32(v[ParamRelease]),
		},
		Reverb: ReverbParams{
			RoomSize: float32(v[ParamReverbRoomSize]),
			Damping:  float32(v[ParamReverbDamping]),
			Wet:      float32(v[ParamReverbWet]),
			Dry:      float32(v[ParamReverbDry]),
			Width:    float32(v[ParamReverbWidth]),
		},
		Chorus: ChorusParams{
			Rate:     float32(v[ParamChorusRate]),
			Depth:    float32(v[ParamChorusDepth]),
			Feedback: float32(v[ParamChorusFeedback]),
			Mix:      float32(v[ParamChorusMix]),
		},
	}
}

// Apply stores every field of s.
func (p *Parameters) Apply(s ChainSettings) {
	p.Set(ParamGain, float64(s.Gain))
	p.Set(ParamFrequency, float64(s.Frequency))
	p.Set(ParamOscillator, float64(s.Oscillator))
	p.Set(ParamHighPass, float64(s.HighPass))
	p.Set(ParamLowPass, float64(s.LowPass))
	p.Set(ParamAttack, float64(s.Envelope.Attack))
	p.Set(ParamDecay, float64(s.Envelope.Decay))
	p.Set(ParamSustain, float64(s.Envelope.Sustain))
	p.Set(ParamRelease, float64(s.Envelope.Release))
	p.Set(ParamReverbRoomSize, float64(s.Reverb.RoomSize))
	p.Set(ParamReverbDamping, float64(s.Reverb.Damping))
	p.Set(ParamReverbWet, float64(s.Reverb.Wet))
	p.Set(ParamReverbDry, float64(s.Reverb.Dry))
	p.Set(ParamReverbWidth, float64(s.Reverb.Width))
	p.Set(ParamChorusRate, float64(s.Chorus.Rate))
	p.Set(ParamChorusDepth, float64(s.Chorus.Depth))
	p.Set(ParamChorusFeedback, float64(s.Chorus.Feedback))
	p.Set(ParamChorusMix, float64(s.Chorus.Mix))
}
