package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-synth/config"
	"github.com/cwbudde/algo-synth/internal/cliutil"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	configPath := flag.String("config", "", "Base run configuration JSON (optional)")
	outputConfig := flag.String("output-config", "fitted.json", "Path to write the best fitted configuration")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-config>.report.json)")
	noteFlag := flag.String("note", "A4", "Note to fit: MIDI number or name")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	knobList := flag.String("knobs", "", "Comma separated parameters to fit (default: filter, envelope, reverb, chorus and gain)")
	fitOscillator := flag.Bool("fit-oscillator", false, "Also search over the waveform")
	fitRelease := flag.Bool("fit-release", true, "Also search over the note-off time")
	releaseAfter := flag.Float64("release-after", 1.0, "Note-off time in seconds (start value with -fit-release)")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 10000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Log progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 10.0, "Maximum render duration in seconds")
	writeBestCandidate := flag.String("write-best-candidate", "", "Optional WAV path to write the best candidate render")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	resumeReport := flag.String("resume-report", "", "Optional report JSON path to resume from (default: current report path)")
	workersFlag := flag.String("workers", "auto", "Parallel workers: auto or a positive number")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := cliutil.NewLogger(*verbose)

	if *maxEvals < 1 {
		cliutil.Die(log, errors.New("max-evals must be >= 1"))
	}
	if *timeBudget <= 0 {
		cliutil.Die(log, errors.New("time-budget must be > 0"))
	}
	*reportEvery = max(*reportEvery, 1)
	*checkpointEvery = max(*checkpointEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)

	workers, err := cliutil.ParseWorkers(*workersFlag)
	if err != nil {
		cliutil.Die(log, err)
	}
	note, err := cliutil.ParseNote(*noteFlag)
	if err != nil {
		cliutil.Die(log, err)
	}

	cfgFile := config.Default()
	if *configPath != "" {
		if cfgFile, err = config.LoadJSON(*configPath); err != nil {
			cliutil.Die(log, err)
		}
	}
	base := cfgFile.Parameters()
	base.Set(synth.ParamFrequency, synth.MidiNoteToFreq(note))

	ref, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		cliutil.Die(log, fmt.Errorf("read reference: %w", err))
	}
	if ref, err = wavio.ResampleIfNeeded(ref, refSR, *sampleRate); err != nil {
		cliutil.Die(log, fmt.Errorf("resample reference: %w", err))
	}

	defs, err := parseKnobs(*knobList, *fitOscillator, *fitRelease)
	if err != nil {
		cliutil.Die(log, err)
	}

	opt := &optimizationConfig{
		reference:     ref,
		base:          base,
		defs:          defs,
		initCandidate: initCandidate(base, defs, *releaseAfter),
		render: renderConfig{
			note:            note,
			sampleRate:      *sampleRate,
			blockSize:       cfgFile.BlockSize,
			decayDBFS:       *decayDBFS,
			decayHoldBlocks: *decayHoldBlocks,
			minDuration:     *minDuration,
			maxDuration:     *maxDuration,
		},
		releaseAfter:       *releaseAfter,
		seed:               *seed,
		timeBudget:         *timeBudget,
		maxEvals:           *maxEvals,
		reportEvery:        *reportEvery,
		checkpointEvery:    *checkpointEvery,
		mayflyVariant:      *mayflyVariant,
		mayflyPop:          *mayflyPop,
		mayflyRoundEvals:   *mayflyRoundEvals,
		workers:            workers,
		outputConfig:       *outputConfig,
		reportPath:         *reportPath,
		referencePath:      *referencePath,
		configPath:         *configPath,
		writeBestCandidate: *writeBestCandidate,
		log:                log,
	}

	if *resume {
		resumePath := *resumeReport
		if resumePath == "" {
			resumePath = reportPathFor(opt)
		}
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, opt.initCandidate); err != nil {
			log.WithError(err).WithField("path", resumePath).Warn("resume skipped")
		} else if ok {
			opt.initCandidate = resumed
			log.WithField("path", resumePath).Info("resumed candidate")
		}
	}

	log.WithFields(logrus.Fields{
		"reference": *referencePath,
		"note":      note,
		"knobs":     len(defs),
		"workers":   workers,
		"variant":   *mayflyVariant,
	}).Info("fitting")

	res, err := runOptimization(opt)
	if err != nil {
		cliutil.Die(log, err)
	}
	if err := writeOutputs(opt, res); err != nil {
		cliutil.Die(log, err)
	}

	log.WithFields(logrus.Fields{
		"evals":      res.evals,
		"elapsed":    fmt.Sprintf("%.1fs", res.elapsed),
		"score":      fmt.Sprintf("%.4f", res.bestMetrics.Score),
		"similarity": fmt.Sprintf("%.2f%%", res.bestMetrics.Similarity*100),
		"output":     *outputConfig,
		"report":     reportPathFor(opt),
	}).Info("done")
}
