package synth

import "fmt"

// Stage is the current envelope segment.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Envelope time limits in seconds.
const (
	MinEnvelopeTime = 0.001
	MaxEnvelopeTime = 5.0
)

// EnvelopeParams holds ADSR times in seconds and the sustain level.
type EnvelopeParams struct {
	Attack  float32
	Decay   float32
	Sustain float32
	Release float32
}

// Envelope is a linear ADSR generator advanced one sample at a time.
//
//	Idle -noteOn-> Attack -> Decay -> Sustain
//	Attack|Decay|Sustain -noteOff-> Release -> Idle
type Envelope struct {
	sampleRate float64
	params     EnvelopeParams

	attackRate  float32
	decayRate   float32
	releaseRate float32

	stage Stage
	level float32
}

// NewEnvelope creates an idle envelope at sampleRate with the given parameters.
func NewEnvelope(sampleRate float64, p EnvelopeParams) *Envelope {
	e := &Envelope{sampleRate: sampleRate}
	e.SetParameters(p)
	return e
}

// SetSampleRate updates the rate used to turn times into per-sample steps.
func (e *Envelope) SetSampleRate(sampleRate float64) {
	changed := sampleRate != e.sampleRate
	e.sampleRate = sampleRate
	e.recalculateRates(changed)
}

// SetParameters clamps and applies new ADSR settings. The current stage is kept;
// only future steps use the new rates.
func (e *Envelope) SetParameters(p EnvelopeParams) {
	oldRelease := e.params.Release
	e.params = EnvelopeParams{
		Attack:  clampf(p.Attack, MinEnvelopeTime, MaxEnvelopeTime),
		Decay:   clampf(p.Decay, MinEnvelopeTime, MaxEnvelopeTime),
		Sustain: clampf(p.Sustain, 0, 1),
		Release: clampf(p.Release, MinEnvelopeTime, MaxEnvelopeTime),
	}
	e.recalculateRates(e.params.Release != oldRelease)
	if e.stage == StageSustain {
		e.level = e.params.Sustain
	}
}

// Parameters returns the clamped settings in use.
func (e *Envelope) Parameters() EnvelopeParams { return e.params }

// NoteOn restarts the envelope from its current level.
func (e *Envelope) NoteOn() {
	switch {
	case e.attackRate > 0:
		e.stage = StageAttack
	case e.decayRate > 0:
		e.level = 1
		e.stage = StageDecay
	default:
		e.level = e.params.Sustain
		e.stage = StageSustain
	}
}

// NoteOff moves any active stage straight into Release from the current level.
func (e *Envelope) NoteOff() {
	if e.stage == StageIdle {
		return
	}
	if rate := e.rate(e.level, e.params.Release); rate > 0 {
		e.releaseRate = rate
		e.stage = StageRelease
		return
	}
	e.Reset()
}

// Next advances one sample and returns the new level.
func (e *Envelope) Next() float32 {
	switch e.stage {
	case StageIdle:
		return 0
	case StageAttack:
		e.level += e.attackRate
		if e.level >= 1 {
			e.level = 1
			e.advance()
		}
	case StageDecay:
		e.level -= e.decayRate
		if e.level <= e.params.Sustain {
			e.level = e.params.Sustain
			e.advance()
		}
	case StageSustain:
		e.level = e.params.Sustain
	case StageRelease:
		e.level -= e.releaseRate
		if e.level <= 0 {
			e.advance()
		}
	}
	return e.level
}

// Stage returns the active segment.
func (e *Envelope) Stage() Stage { return e.stage }

// Level returns the most recent output level.
func (e *Envelope) Level() float32 { return e.level }

// Active reports whether the envelope is producing a non-idle output.
func (e *Envelope) Active() bool { return e.stage != StageIdle }

// Reset returns to Idle at level 0.
func (e *Envelope) Reset() {
	e.stage = StageIdle
	e.level = 0
}

func (e *Envelope) advance() {
	switch e.stage {
	case StageAttack:
		if e.decayRate > 0 {
			e.stage = StageDecay
		} else {
			e.stage = StageSustain
		}
	case StageDecay:
		e.stage = StageSustain
	case StageRelease:
		e.Reset()
	}
}

// recalculateRates refreshes the per-sample steps. A running release keeps the
// rate NoteOff derived from its start level; when the release time or sample
// rate changed it is re-derived from the current level.
func (e *Envelope) recalculateRates(releaseChanged bool) {
	e.attackRate = e.rate(1, e.params.Attack)
	e.decayRate = e.rate(1-e.params.Sustain, e.params.Decay)
	if e.stage != StageRelease {
		e.releaseRate = e.rate(e.params.Sustain, e.params.Release)
		return
	}
	if releaseChanged {
		e.releaseRate = e.rate(e.level, e.params.Release)
	}
	if e.releaseRate <= 0 {
		e.Reset()
	}
}

func (e *Envelope) rate(distance, seconds float32) float32 {
	if seconds <= 0 || e.sampleRate <= 0 {
		return -1
	}
	return distance / (seconds * float32(e.sampleRate))
}

// NormalizedTime maps a 0..1 control onto the envelope time range with a squared
// curve, giving finer resolution at short times.
func NormalizedTime(v float32) float32 {
	v = clampf(v, 0, 1)
	return MinEnvelopeTime + (MaxEnvelopeTime-MinEnvelopeTime)*v*v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
