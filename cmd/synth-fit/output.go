package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/config"
	"github.com/cwbudde/algo-synth/internal/wavio"
)

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	ConfigPath      string             `json:"config_path"`
	OutputConfig    string             `json:"output_config"`
	SampleRate      int                `json:"sample_rate"`
	Note            int                `json:"note"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
}

func reportPathFor(cfg *optimizationConfig) string {
	if cfg.reportPath != "" {
		return cfg.reportPath
	}
	return cfg.outputConfig + ".report.json"
}

func buildReport(cfg *optimizationConfig, res *optimizationResult) runReport {
	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = res.best.Vals[i]
	}
	return runReport{
		ReferencePath:   cfg.referencePath,
		ConfigPath:      cfg.configPath,
		OutputConfig:    cfg.outputConfig,
		SampleRate:      cfg.render.sampleRate,
		Note:            int(cfg.render.note),
		DurationSec:     res.elapsed,
		Evaluations:     res.evals,
		MayflyVariant:   cfg.mayflyVariant,
		BestScore:       res.bestMetrics.Score,
		BestSimilarity:  res.bestMetrics.Similarity,
		BestMetrics:     res.bestMetrics,
		BestKnobs:       knobs,
		CheckpointCount: res.checkpoints,
	}
}

// writeOutputs stores the fitted run configuration and the report next to it.
func writeOutputs(cfg *optimizationConfig, res *optimizationResult) error {
	p, _ := applyCandidate(cfg.base, cfg.defs, res.best, cfg.releaseAfter)
	f := config.FromParameters(cfg.render.sampleRate, cfg.render.blockSize, p)
	if err := config.WriteJSON(cfg.outputConfig, f); err != nil {
		return err
	}
	return writeJSON(reportPathFor(cfg), buildReport(cfg, res))
}

func writeBestCandidateWAV(cfg *optimizationConfig, best candidate) error {
	p, releaseAfter := applyCandidate(cfg.base, cfg.defs, best, cfg.releaseAfter)
	_, stereo, err := renderCandidate(p, cfg.render, releaseAfter)
	if err != nil {
		return err
	}
	return wavio.WriteStereo(cfg.writeBestCandidate, stereo[0], stereo[1], cfg.render.sampleRate)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
