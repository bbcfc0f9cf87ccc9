package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/cwbudde/algo-synth/synth"
)

// noParam marks knobs that steer the render rather than the engine.
const noParam synth.ParamID = -1

type knobDef struct {
	Name  string
	Param synth.ParamID
	Spec  synth.ParamSpec
}

type candidate struct {
	Vals []float64
}

var releaseAfterSpec = synth.ParamSpec{
	Name:    "render.release_after",
	Min:     0.05,
	Max:     4,
	Default: 1,
	Skew:    1,
}

// defaultKnobs covers the filter, envelope, reverb and chorus sections.
var defaultKnobs = []synth.ParamID{
	synth.ParamGain,
	synth.ParamHighPass,
	synth.ParamLowPass,
	synth.ParamAttack,
	synth.ParamDecay,
	synth.ParamSustain,
	synth.ParamRelease,
	synth.ParamReverbRoomSize,
	synth.ParamReverbDamping,
	synth.ParamReverbWet,
	synth.ParamReverbDry,
	synth.ParamReverbWidth,
	synth.ParamChorusRate,
	synth.ParamChorusDepth,
	synth.ParamChorusFeedback,
	synth.ParamChorusMix,
}

// parseKnobs resolves a comma separated list of parameter names. An empty
// list selects defaultKnobs. ParamFrequency is owned by the note and rejected.
func parseKnobs(raw string, withOscillator, withRelease bool) ([]knobDef, error) {
	ids := defaultKnobs
	if s := strings.TrimSpace(raw); s != "" {
		ids = nil
		seen := make(map[synth.ParamID]bool)
		for _, part := range strings.Split(s, ",") {
			id, err := synth.ParseParamID(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			if id == synth.ParamFrequency {
				return nil, errors.New("frequency follows the note and cannot be fitted")
			}
			if seen[id] {
				return nil, fmt.Errorf("duplicate knob %q", id)
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if withOscillator && !slices.Contains(ids, synth.ParamOscillator) {
		ids = append(slices.Clone(ids), synth.ParamOscillator)
	}
	defs := make([]knobDef, 0, len(ids)+1)
	for _, id := range ids {
		defs = append(defs, knobDef{Name: id.String(), Param: id, Spec: id.Spec()})
	}
	if withRelease {
		defs = append(defs, knobDef{Name: releaseAfterSpec.Name, Param: noParam, Spec: releaseAfterSpec})
	}
	if len(defs) == 0 {
		return nil, errors.New("no knobs selected")
	}
	return defs, nil
}

// initCandidate reads the starting point from the base registry.
func initCandidate(base *synth.Parameters, defs []knobDef, releaseAfter float64) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		if d.Param == noParam {
			vals[i] = d.Spec.Clamp(releaseAfter)
			continue
		}
		vals[i] = base.Get(d.Param)
	}
	return candidate{Vals: vals}
}

// fromNormalized maps a mayfly position in [0,1]^n through each knob's skew.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		x := 0.0
		if i < len(pos) {
			x = pos[i]
		}
		vals[i] = d.Spec.FromNormalized(x)
	}
	return candidate{Vals: vals}
}

// applyCandidate returns a fresh registry with the candidate applied and the
// note-off time in seconds.
func applyCandidate(base *synth.Parameters, defs []knobDef, c candidate, releaseAfter float64) (*synth.Parameters, float64) {
	p := synth.NewParameters()
	p.Apply(base.Snapshot())
	for i, d := range defs {
		if d.Param == noParam {
			releaseAfter = d.Spec.Clamp(c.Vals[i])
			continue
		}
		p.Set(d.Param, c.Vals[i])
	}
	// Keep the band open when both cutoffs are fitted.
	if hp, lp := p.Get(synth.ParamHighPass), p.Get(synth.ParamLowPass); hp >= lp {
		p.Set(synth.ParamHighPass, lp*0.5)
	}
	return p, releaseAfter
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

// loadCandidateFromReport restores best_knobs from an earlier run. Knobs the
// report lacks keep the fallback value.
func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	out := cloneCandidate(fallback)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			out.Vals[i] = d.Spec.Clamp(v)
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return out, true, nil
}
