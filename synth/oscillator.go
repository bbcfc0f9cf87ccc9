package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	Triangle
	Flute
	NumWaveforms
)

const twoPi = 2 * math.Pi

// phaseWrap is a common period of every waveform. The flute breath term runs at a
// tenth of the fundamental, so its period is 20π.
const phaseWrap = 10 * twoPi

var waveformNames = [NumWaveforms]string{"sine", "square", "saw", "triangle", "flute"}

func (w Waveform) String() string {
	if w < 0 || w >= NumWaveforms {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform resolves a waveform by its case-insensitive name.
func ParseWaveform(name string) (Waveform, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range waveformNames {
		if s == n {
			return Waveform(i), nil
		}
	}
	return Sine, fmt.Errorf("unknown waveform %q (want one of %s)", name, strings.Join(waveformNames[:], ", "))
}

// Generate returns the sample of waveform w at phase (radians). It has no state:
// the caller owns the phase accumulator.
func Generate(w Waveform, phase float64) float32 {
	switch w {
	case Sine:
		return float32(math.Sin(phase))
	case Square:
		if math.Sin(phase) >= 0 {
			return 1
		}
		return -1
	case Saw:
		return float32(2 * sawCycle(phase))
	case Triangle:
		return float32(2*math.Abs(2*sawCycle(phase)) - 1)
	case Flute:
		return flute(phase)
	default:
		return 0
	}
}

// sawCycle maps phase to the centred cycle position in [-0.5, 0.5).
func sawCycle(phase float64) float64 {
	p := phase / twoPi
	return p - math.Floor(0.5+p)
}

// flute is a fixed additive timbre: fundamental plus four weighted harmonics with
// a slow breath tremolo, scaled to stay below full scale.
func flute(phase float64) float32 {
	tone := math.Sin(phase) +
		0.3*math.Sin(2*phase) +
		0.15*math.Sin(3*phase) +
		0.05*math.Sin(4*phase) +
		0.08*math.Sin(5*phase)
	breath := 1 + 0.02*math.Sin(0.1*phase)
	return float32(tone * breath * 0.8)
}

// PhaseIncrement returns the per-sample phase advance for freq at sampleRate.
func PhaseIncrement(freq, sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return twoPi * freq / sampleRate
}

// wrapPhase keeps the accumulator bounded without changing any waveform's output.
func wrapPhase(phase float64) float64 {
	if phase >= phaseWrap {
		phase -= phaseWrap * math.Floor(phase/phaseWrap)
	}
	return phase
}
