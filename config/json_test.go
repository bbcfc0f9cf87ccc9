package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-synth/synth"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadJSONAppliesOverrides(t *testing.T) {
	path := writeConfig(t, `{
  "sample_rate": 44100,
  "block_size": 256,
  "gain": 0.8,
  "oscillator": "Triangle",
  "low_pass": 4000,
  "sustain": 0.5,
  "reverb": {"wet": 0.1, "width": 0.5},
  "chorus": {"mix": 0}
}`)

	c, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if c.SampleRate != 44100 || c.BlockSize != 256 {
		t.Fatalf("rate/block mismatch: %d/%d", c.SampleRate, c.BlockSize)
	}
	s := c.Settings
	if s.Gain != 0.8 || s.Oscillator != synth.Triangle || s.LowPass != 4000 || s.Envelope.Sustain != 0.5 {
		t.Fatalf("settings mismatch: %+v", s)
	}
	if s.Reverb.Wet != 0.1 || s.Reverb.Width != 0.5 || s.Reverb.RoomSize != 0.5 {
		t.Fatalf("reverb mismatch: %+v", s.Reverb)
	}
	if s.Chorus.Mix != 0 || s.Chorus.Rate != 0.5 {
		t.Fatalf("chorus mismatch: %+v", s.Chorus)
	}
	if s.Frequency != 440 || s.Envelope.Attack != 0.1 {
		t.Fatalf("defaults not kept: %+v", s)
	}
}

func TestLoadJSONRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"gain above range", `{"gain": 1.5}`},
		{"negative attack", `{"attack": -1}`},
		{"feedback above cap", `{"chorus": {"feedback": 0.99}}`},
		{"reverb width", `{"reverb": {"width": 2}}`},
		{"unknown oscillator", `{"oscillator": "noise"}`},
		{"tiny sample rate", `{"sample_rate": 100}`},
		{"zero block", `{"block_size": 0}`},
		{"crossed filters", `{"high_pass": 5000, "low_pass": 1000}`},
		{"malformed", `{"gain": }`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadJSON(writeConfig(t, tc.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadJSONMissingFile(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	c := Default()
	c.SampleRate = 96000
	c.Settings.Oscillator = synth.Flute
	c.Settings.Chorus.Depth = 0.75
	c.Settings.Reverb.Dry = 0.2

	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, FromConfig(c)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if *got != *c {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, c)
	}
}

func TestFromParametersCapturesRegistry(t *testing.T) {
	p := synth.NewParameters()
	p.Set(synth.ParamHighPass, 120)
	p.Set(synth.ParamOscillator, float64(synth.Saw))

	f := FromParameters(48000, 128, p)
	if *f.HighPass != 120 || *f.Oscillator != "saw" || *f.BlockSize != 128 {
		t.Fatalf("unexpected file: highpass %v oscillator %v block %v", *f.HighPass, *f.Oscillator, *f.BlockSize)
	}

	c := Default()
	if err := ApplyFile(c, f); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if got := c.Parameters().Snapshot(); got != p.Snapshot() {
		t.Fatalf("registry mismatch: %+v vs %+v", got, p.Snapshot())
	}
}

func TestApplyFileNilHandling(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatal("expected error for nil destination")
	}
	c := Default()
	if err := ApplyFile(c, nil); err != nil || *c != *Default() {
		t.Fatalf("nil file must be a no-op: %v", err)
	}
}
