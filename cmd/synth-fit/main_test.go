package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/config"
	"github.com/cwbudde/algo-synth/synth"
)

func TestParseKnobsDefault(t *testing.T) {
	defs, err := parseKnobs("", false, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != len(defaultKnobs)+1 {
		t.Fatalf("defs len = %d, want %d", len(defs), len(defaultKnobs)+1)
	}
	if last := defs[len(defs)-1]; last.Param != noParam || last.Name != "render.release_after" {
		t.Fatalf("last knob = %+v, want render.release_after", last)
	}
	for _, d := range defs {
		if d.Param == synth.ParamFrequency || d.Param == synth.ParamOscillator {
			t.Fatalf("unexpected default knob %q", d.Name)
		}
	}
}

func TestParseKnobsSubset(t *testing.T) {
	defs, err := parseKnobs("attack, low_pass", true, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"attack", "low_pass", "oscillator"}
	if len(defs) != len(want) {
		t.Fatalf("defs len = %d, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Fatalf("defs[%d] = %q, want %q", i, defs[i].Name, name)
		}
	}
}

func TestParseKnobsRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown", raw: "attack,wobble"},
		{name: "frequency", raw: "frequency"},
		{name: "duplicate", raw: "decay,decay"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseKnobs(tc.raw, false, false); err == nil {
				t.Fatalf("parseKnobs(%q) succeeded", tc.raw)
			}
		})
	}
}

func TestFromNormalizedStaysInRange(t *testing.T) {
	defs, err := parseKnobs("", true, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{-1, 0, 0.37, 1, 2} {
		pos := make([]float64, len(defs))
		for i := range pos {
			pos[i] = x
		}
		c := fromNormalized(pos, defs)
		for i, d := range defs {
			v := c.Vals[i]
			if v < d.Spec.Min || v > d.Spec.Max {
				t.Fatalf("%s = %f outside [%f, %f]", d.Name, v, d.Spec.Min, d.Spec.Max)
			}
			if d.Spec.Discrete && v != math.Round(v) {
				t.Fatalf("%s = %f not integral", d.Name, v)
			}
		}
	}
}

func TestApplyCandidateRoundTrip(t *testing.T) {
	base := synth.NewParameters()
	defs, err := parseKnobs("attack,reverb_wet,chorus_mix", false, true)
	if err != nil {
		t.Fatal(err)
	}
	c := candidate{Vals: []float64{0.25, 0.8, 0.1, 1.5}}
	p, releaseAfter := applyCandidate(base, defs, c, 1.0)

	if got := p.Get(synth.ParamAttack); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("attack = %f, want 0.25", got)
	}
	if got := p.Get(synth.ParamReverbWet); math.Abs(got-0.8) > 1e-6 {
		t.Fatalf("reverb_wet = %f, want 0.8", got)
	}
	if releaseAfter != 1.5 {
		t.Fatalf("releaseAfter = %f, want 1.5", releaseAfter)
	}
	if base.Get(synth.ParamAttack) == 0.25 {
		t.Fatal("applyCandidate modified the base registry")
	}

	back := initCandidate(p, defs, releaseAfter)
	for i := range c.Vals {
		if math.Abs(back.Vals[i]-c.Vals[i]) > 1e-6 {
			t.Fatalf("initCandidate[%d] = %f, want %f", i, back.Vals[i], c.Vals[i])
		}
	}
}

func TestApplyCandidateKeepsBandOpen(t *testing.T) {
	defs, err := parseKnobs("high_pass,low_pass", false, false)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := applyCandidate(synth.NewParameters(), defs, candidate{Vals: []float64{5000, 1000}}, 1)
	if hp, lp := p.Get(synth.ParamHighPass), p.Get(synth.ParamLowPass); hp >= lp {
		t.Fatalf("high_pass %f >= low_pass %f", hp, lp)
	}
}

func TestLoadCandidateFromReport(t *testing.T) {
	defs, err := parseKnobs("attack,decay", false, false)
	if err != nil {
		t.Fatal(err)
	}
	fallback := candidate{Vals: []float64{0.1, 0.1}}

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")
	if got, ok, err := loadCandidateFromReport(missing, defs, fallback); err != nil || ok || got.Vals[0] != 0.1 {
		t.Fatalf("missing report: ok=%v err=%v", ok, err)
	}

	path := filepath.Join(dir, "report.json")
	rep := runReport{BestKnobs: map[string]float64{"decay": 0.4, "unrelated": 3}}
	b, _ := json.Marshal(rep)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok, err := loadCandidateFromReport(path, defs, fallback)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got.Vals[0] != 0.1 || got.Vals[1] != 0.4 {
		t.Fatalf("vals = %v, want [0.1 0.4]", got.Vals)
	}
	if fallback.Vals[1] != 0.1 {
		t.Fatal("fallback was modified")
	}
}

func TestRenderCandidateStopsAfterRelease(t *testing.T) {
	p := synth.NewParameters()
	p.Set(synth.ParamRelease, 0.01)
	p.Set(synth.ParamReverbWet, 0)
	rc := renderConfig{
		note:            69,
		sampleRate:      48000,
		blockSize:       256,
		decayDBFS:       -90,
		decayHoldBlocks: 4,
		minDuration:     0.2,
		maxDuration:     5,
	}
	mono, stereo, err := renderCandidate(p, rc, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(mono) != len(stereo[0]) || len(stereo[0]) != len(stereo[1]) {
		t.Fatalf("length mismatch: %d %d %d", len(mono), len(stereo[0]), len(stereo[1]))
	}
	if len(mono) >= 5*48000 {
		t.Fatalf("render did not auto-stop (%d frames)", len(mono))
	}
	if analysis.Peak(mono) == 0 {
		t.Fatal("render is silent")
	}
}

func TestNewMayflyConfig(t *testing.T) {
	cfg, err := newMayflyConfig("desma", 10, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProblemSize != 5 || cfg.NPop != 10 || cfg.NC != 20 || cfg.NM < 1 {
		t.Fatalf("unexpected config: size=%d pop=%d nc=%d nm=%d", cfg.ProblemSize, cfg.NPop, cfg.NC, cfg.NM)
	}
	if _, err := newMayflyConfig("nope", 10, 5, 3); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	defs, err := parseKnobs("sustain", false, false)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &optimizationConfig{
		base:          synth.NewParameters(),
		defs:          defs,
		render:        renderConfig{note: 60, sampleRate: 44100, blockSize: 256},
		releaseAfter:  1,
		mayflyVariant: "desma",
		outputConfig:  filepath.Join(dir, "fitted.json"),
	}
	res := &optimizationResult{best: candidate{Vals: []float64{0.42}}, bestMetrics: analysis.Metrics{Score: 0.1}, evals: 7}
	if err := writeOutputs(cfg, res); err != nil {
		t.Fatal(err)
	}

	loaded, err := config.LoadJSON(cfg.outputConfig)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(loaded.Settings.Envelope.Sustain)-0.42) > 1e-6 {
		t.Fatalf("sustain = %f, want 0.42", loaded.Settings.Envelope.Sustain)
	}
	if loaded.SampleRate != 44100 || loaded.BlockSize != 256 {
		t.Fatalf("rate/block = %d/%d", loaded.SampleRate, loaded.BlockSize)
	}

	b, err := os.ReadFile(reportPathFor(cfg))
	if err != nil {
		t.Fatal(err)
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Evaluations != 7 || rep.BestKnobs["sustain"] != 0.42 {
		t.Fatalf("report = %+v", rep)
	}
}
