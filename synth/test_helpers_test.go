package synth

import "math"

// neutralSettings returns settings with the effects reduced to a transparent
// path: chorus fully dry, reverb dry at unity and no wet signal.
func neutralSettings() ChainSettings {
	s := DefaultSettings()
	s.Gain = 1
	s.Chorus.Mix = 0
	s.Reverb.Wet = 0
	s.Reverb.Dry = 0.5
	return s
}

func newTestEngine(t interface{ Fatalf(string, ...any) }, s ChainSettings, sampleRate float64, blockSize int) *Engine {
	p := NewParameters()
	p.Apply(s)
	e := NewEngine(WithParameters(p))
	if err := e.Prepare(sampleRate, blockSize); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return e
}

func stereoBlock(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func peakAbs(samples []float32) float32 {
	var peak float32
	for _, v := range samples {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	return peak
}

func toFloat64(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	return out
}

func allFinite(samples []float32) bool {
	for _, v := range samples {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
