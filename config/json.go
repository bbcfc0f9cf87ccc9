// Package config loads and writes the JSON run configuration shared by the
// command-line tools: engine rate and block size plus every synth parameter.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-synth/synth"
)

// File is the JSON schema. Every field is optional; absent fields keep their
// defaults.
type File struct {
	SampleRate *int `json:"sample_rate,omitempty"`
	BlockSize  *int `json:"block_size,omitempty"`

	Gain       *float32 `json:"gain,omitempty"`
	Frequency  *float32 `json:"frequency,omitempty"`
	Oscillator *string  `json:"oscillator,omitempty"`
	HighPass   *float32 `json:"high_pass,omitempty"`
	LowPass    *float32 `json:"low_pass,omitempty"`

	Attack  *float32 `json:"attack,omitempty"`
	Decay   *float32 `json:"decay,omitempty"`
	Sustain *float32 `json:"sustain,omitempty"`
	Release *float32 `json:"release,omitempty"`

	Reverb *ReverbSetting `json:"reverb,omitempty"`
	Chorus *ChorusSetting `json:"chorus,omitempty"`
}

// ReverbSetting is a partial reverb override.
type ReverbSetting struct {
	RoomSize *float32 `json:"room_size,omitempty"`
	Damping  *float32 `json:"damping,omitempty"`
	Wet      *float32 `json:"wet,omitempty"`
	Dry      *float32 `json:"dry,omitempty"`
	Width    *float32 `json:"width,omitempty"`
}

// ChorusSetting is a partial chorus override.
type ChorusSetting struct {
	Rate     *float32 `json:"rate,omitempty"`
	Depth    *float32 `json:"depth,omitempty"`
	Feedback *float32 `json:"feedback,omitempty"`
	Mix      *float32 `json:"mix,omitempty"`
}

// Config is a resolved run configuration.
type Config struct {
	SampleRate int
	BlockSize  int
	Settings   synth.ChainSettings
}

// Default rate and block size of the tools.
const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 512
	MaxBlockSize      = 1 << 16
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
		Settings:   synth.DefaultSettings(),
	}
}

// LoadJSON loads a configuration file and applies it on top of the defaults.
func LoadJSON(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c := Default()
	if err := ApplyFile(c, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ApplyFile applies a parsed file onto dst. Out-of-range values are rejected
// rather than clamped.
func ApplyFile(dst *Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate < 8000 || *f.SampleRate > 384000 {
			return fmt.Errorf("sample_rate must be in [8000,384000], got %d", *f.SampleRate)
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.BlockSize != nil {
		if *f.BlockSize < 1 || *f.BlockSize > MaxBlockSize {
			return fmt.Errorf("block_size must be in [1,%d], got %d", MaxBlockSize, *f.BlockSize)
		}
		dst.BlockSize = *f.BlockSize
	}
	if f.Oscillator != nil {
		w, err := synth.ParseWaveform(*f.Oscillator)
		if err != nil {
			return fmt.Errorf("oscillator: %w", err)
		}
		dst.Settings.Oscillator = w
	}

	s := &dst.Settings
	fields := []struct {
		id  synth.ParamID
		src *float32
		dst *float32
	}{
		{synth.ParamGain, f.Gain, &s.Gain},
		{synth.ParamFrequency, f.Frequency, &s.Frequency},
		{synth.ParamHighPass, f.HighPass, &s.HighPass},
		{synth.ParamLowPass, f.LowPass, &s.LowPass},
		{synth.ParamAttack, f.Attack, &s.Envelope.Attack},
		{synth.ParamDecay, f.Decay, &s.Envelope.Decay},
		{synth.ParamSustain, f.Sustain, &s.Envelope.Sustain},
		{synth.ParamRelease, f.Release, &s.Envelope.Release},
	}
	if r := f.Reverb; r != nil {
		fields = append(fields, []struct {
			id  synth.ParamID
			src *float32
			dst *float32
		}{
			{synth.ParamReverbRoomSize, r.RoomSize, &s.Reverb.RoomSize},
			{synth.ParamReverbDamping, r.Damping, &s.Reverb.Damping},
			{synth.ParamReverbWet, r.Wet, &s.Reverb.Wet},
			{synth.ParamReverbDry, r.Dry, &s.Reverb.Dry},
			{synth.ParamReverbWidth, r.Width, &s.Reverb.Width},
		}...)
	}
	if c := f.Chorus; c != nil {
		fields = append(fields, []struct {
			id  synth.ParamID
			src *float32
			dst *float32
		}{
			{synth.ParamChorusRate, c.Rate, &s.Chorus.Rate},
			{synth.ParamChorusDepth, c.Depth, &s.Chorus.Depth},
			{synth.ParamChorusFeedback, c.Feedback, &s.Chorus.Feedback},
			{synth.ParamChorusMix, c.Mix, &s.Chorus.Mix},
		}...)
	}

	for _, fld := range fields {
		if fld.src == nil {
			continue
		}
		if err := checkRange(fld.id, *fld.src); err != nil {
			return err
		}
		*fld.dst = *fld.src
	}
	if s.HighPass >= s.LowPass {
		return fmt.Errorf("high_pass (%g Hz) must be below low_pass (%g Hz)", s.HighPass, s.LowPass)
	}
	return nil
}

func checkRange(id synth.ParamID, v float32) error {
	spec := id.Spec()
	if x := float64(v); math.IsNaN(x) || x < spec.Min || x > spec.Max {
		return fmt.Errorf("%s must be in [%g,%g], got %g", id, spec.Min, spec.Max, v)
	}
	return nil
}

// FromConfig returns a fully populated file describing c.
func FromConfig(c *Config) *File {
	s := c.Settings
	osc := s.Oscillator.String()
	return &File{
		SampleRate: &c.SampleRate,
		BlockSize:  &c.BlockSize,
		Gain:       &s.Gain,
		Frequency:  &s.Frequency,
		Oscillator: &osc,
		HighPass:   &s.HighPass,
		LowPass:    &s.LowPass,
		Attack:     &s.Envelope.Attack,
		Decay:      &s.Envelope.Decay,
		Sustain:    &s.Envelope.Sustain,
		Release:    &s.Envelope.Release,
		Reverb: &ReverbSetting{
			RoomSize: &s.Reverb.RoomSize,
			Damping:  &s.Reverb.Damping,
			Wet:      &s.Reverb.Wet,
			Dry:      &s.Reverb.Dry,
			Width:    &s.Reverb.Width,
		},
		Chorus: &ChorusSetting{
			Rate:     &s.Chorus.Rate,
			Depth:    &s.Chorus.Depth,
			Feedback: &s.Chorus.Feedback,
			Mix:      &s.Chorus.Mix,
		},
	}
}

// FromParameters captures the current values of a live registry.
func FromParameters(sampleRate, blockSize int, p *synth.Parameters) *File {
	return FromConfig(&Config{SampleRate: sampleRate, BlockSize: blockSize, Settings: p.Snapshot()})
}

// WriteJSON writes f as indented JSON.
func WriteJSON(path string, f *File) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Parameters returns a registry holding the configured settings.
func (c *Config) Parameters() *synth.Parameters {
	p := synth.NewParameters()
	p.Apply(c.Settings)
	return p
}
