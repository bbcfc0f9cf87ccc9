package synth

import (
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-synth/dsp"
)

// MaxChannels is the widest output layout the engine renders.
const MaxChannels = 2

// scopeBlocks is the scope length in prepared blocks.
const scopeBlocks = 4

const changeEpsilon = 1e-9

// Engine is the monophonic signal chain: oscillator, envelope, filters, chorus,
// reverb and output gain. One goroutine calls ProcessBlock; parameters may be
// changed from any goroutine through Parameters.
type Engine struct {
	params *Parameters
	log    logrus.FieldLogger

	sampleRate   float64
	maxBlockSize int
	prepared     bool

	phase     float64
	increment float64
	incRamp   dsp.LinearRamp[float64]
	gainRamp  dsp.LinearRamp[float32]

	envelope *Envelope
	filters  *FilterChain
	chorus   *Chorus
	reverb   *Reverb
	scope    *Scope

	previous ChainSettings
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by Prepare. ProcessBlock never logs.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithParameters makes the engine read an existing registry.
func WithParameters(p *Parameters) Option {
	return func(e *Engine) {
		if p != nil {
			e.params = p
		}
	}
}

// NewEngine creates an unprepared engine.
func NewEngine(opts ...Option) *Engine {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	e := &Engine{
		params:   NewParameters(),
		log:      discard,
		envelope: NewEnvelope(44100, DefaultSettings().Envelope),
		filters:  NewFilterChain(),
		chorus:   NewChorus(),
		reverb:   NewReverb(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parameters returns the registry the engine reads every block.
func (e *Engine) Parameters() *Parameters { return e.params }

// Scope returns the visualization buffer, nil before Prepare.
func (e *Engine) Scope() *Scope { return e.scope }

// SampleRate returns the prepared sample rate.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// MaxBlockSize returns the prepared maximum block length.
func (e *Engine) MaxBlockSize() int { return e.maxBlockSize }

// EnvelopeStage returns the current envelope stage.
func (e *Engine) EnvelopeStage() Stage { return e.envelope.Stage() }

// Active reports whether a note is sounding or releasing.
func (e *Engine) Active() bool { return e.envelope.Active() }

// SupportsChannels reports whether n output channels can be rendered.
func (e *Engine) SupportsChannels(n int) bool {
	ok := n >= 1 && n <= MaxChannels
	if !ok {
		e.log.WithField("channels", n).Warn("unsupported channel layout")
	}
	return ok
}

// Prepare allocates all buffers for sampleRate and blocks of up to maxBlockSize
// samples, and resets the signal chain. It must not run concurrently with
// ProcessBlock.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("invalid block size %d", maxBlockSize)
	}

	e.sampleRate = sampleRate
	e.maxBlockSize = maxBlockSize

	s := e.params.Snapshot()
	e.envelope.SetSampleRate(sampleRate)
	e.envelope.SetParameters(s.Envelope)
	e.envelope.Reset()

	e.filters.Prepare(sampleRate, maxBlockSize, MaxChannels)
	e.filters.SetCutoffs(float64(s.HighPass), float64(s.LowPass))
	e.chorus.Prepare(sampleRate)
	e.chorus.SetParameters(s.Chorus)
	e.reverb.Prepare(sampleRate)
	e.reverb.SetParameters(s.Reverb)
	e.scope = NewScope(scopeBlocks * maxBlockSize)

	e.phase = 0
	e.increment = PhaseIncrement(float64(s.Frequency), sampleRate)
	e.incRamp = dsp.NewLinearRamp(e.increment)
	e.gainRamp = dsp.NewLinearRamp(s.Gain)
	e.previous = s
	e.prepared = true

	e.log.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"block_size":  maxBlockSize,
		"oscillator":  s.Oscillator.String(),
	}).Debug("engine prepared")
	return nil
}

// Reset silences the chain without reallocating.
func (e *Engine) Reset() {
	e.envelope.Reset()
	e.filters.Reset()
	e.chorus.Reset()
	e.reverb.Reset()
	if e.scope != nil {
		e.scope.Reset()
	}
	e.phase = 0
}

// ProcessBlock renders len(out[0]) samples into every channel of out, replacing
// their contents. All channels must have the same length. The first note-on in
// events and every note-off take effect at the start of the block.
func (e *Engine) ProcessBlock(out [][]float32, events []NoteEvent) {
	if !e.prepared || len(out) == 0 {
		return
	}
	if len(out) > MaxChannels {
		out = out[:MaxChannels]
	}
	n := len(out[0])

	for start := 0; start < n; start += e.maxBlockSize {
		end := min(start+e.maxBlockSize, n)
		var chunk [MaxChannels][]float32
		for ch := range out {
			chunk[ch] = out[ch][start:end]
		}
		e.processChunk(chunk[:len(out)], events)
		events = nil
	}
}

func (e *Engine) processChunk(out [][]float32, events []NoteEvent) {
	n := len(out[0])
	if n == 0 {
		return
	}

	s := e.params.Snapshot()
	e.envelope.SetParameters(s.Envelope)
	rp := s.Reverb
	rp.Freeze = false
	e.reverb.SetParameters(rp)

	noteStarted := false
	for _, ev := range events {
		switch {
		case ev.On && !noteStarted:
			noteStarted = true
			freq := MidiNoteToFreq(ev.Note)
			e.params.Set(ParamFrequency, freq)
			s.Frequency = float32(ParamFrequency.Spec().Clamp(freq))
			e.envelope.NoteOn()
		case !ev.On:
			e.envelope.NoteOff()
		}
	}

	e.renderVoice(out, n, s)

	e.filters.SetCutoffs(float64(s.HighPass), float64(s.LowPass))
	e.filters.Process(out, n)

	e.chorus.SetParameters(s.Chorus)
	e.chorus.Process(out, n)

	e.reverb.Process(out, n)

	e.applyGain(out, n, s.Gain)

	e.scope.Write(out[0][:n])
	e.previous = s
}

func (e *Engine) renderVoice(out [][]float32, n int, s ChainSettings) {
	target := PhaseIncrement(float64(s.Frequency), e.sampleRate)
	ramped := !core.NearlyEqual(float64(s.Frequency), float64(e.previous.Frequency), changeEpsilon)
	if ramped {
		e.incRamp.Reset(e.increment, target, n)
	} else {
		e.incRamp.Reset(target, target, 0)
	}

	first := out[0]
	for i := 0; i < n; i++ {
		sample := Generate(s.Oscillator, e.phase)
		e.phase = wrapPhase(e.phase + e.incRamp.Next())
		first[i] = sample * e.envelope.Next()
	}
	for ch := 1; ch < len(out); ch++ {
		copy(out[ch][:n], first[:n])
	}

	e.increment = target
}

func (e *Engine) applyGain(out [][]float32, n int, gain float32) {
	if core.NearlyEqual(float64(gain), float64(e.previous.Gain), changeEpsilon) {
		for _, buf := range out {
			for i := range buf[:n] {
				buf[i] *= gain
			}
		}
		return
	}
	for _, buf := range out {
		e.gainRamp.Reset(e.previous.Gain, gain, n)
		for i := range buf[:n] {
			buf[i] *= e.gainRamp.Next()
		}
	}
}
