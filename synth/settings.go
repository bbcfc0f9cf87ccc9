package synth

// ChainSettings is the per-block copy of every parameter. The engine reads the
// registry once per block and works from this value only.
type ChainSettings struct {
	Gain       float32
	Frequency  float32
	Oscillator Waveform
	HighPass   float32
	LowPass    float32
	Envelope   EnvelopeParams
	Reverb     ReverbParams
	Chorus     ChorusParams
}

// DefaultSettings returns the default value of every parameter.
func DefaultSettings() ChainSettings {
	return NewParameters().Snapshot()
}
