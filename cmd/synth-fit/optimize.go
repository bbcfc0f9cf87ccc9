package main

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/mayfly"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/synth"
)

type optimizationConfig struct {
	reference          []float64
	base               *synth.Parameters
	defs               []knobDef
	initCandidate      candidate
	render             renderConfig
	releaseAfter       float64
	seed               int64
	timeBudget         float64
	maxEvals           int
	reportEvery        int
	checkpointEvery    int
	mayflyVariant      string
	mayflyPop          int
	mayflyRoundEvals   int
	workers            int
	outputConfig       string
	reportPath         string
	referencePath      string
	configPath         string
	writeBestCandidate string
	log                logrus.FieldLogger
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	evals       int
	elapsed     float64
	checkpoints int
}

type optimizationState struct {
	mu          sync.Mutex
	best        candidate
	bestMetrics analysis.Metrics
	checkpoints int
}

func (cfg *optimizationConfig) evaluate(c candidate) (analysis.Metrics, error) {
	p, releaseAfter := applyCandidate(cfg.base, cfg.defs, c, cfg.releaseAfter)
	mono, _, err := renderCandidate(p, cfg.render, releaseAfter)
	if err != nil {
		return analysis.Metrics{}, err
	}
	return analysis.Compare(cfg.reference, mono, cfg.render.sampleRate), nil
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	log := cfg.log
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)

	// Reject a bad variant before starting workers.
	if _, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), 1); err != nil {
		return nil, err
	}

	best := cloneCandidate(cfg.initCandidate)
	bestM, err := cfg.evaluate(best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	log.WithFields(logrus.Fields{
		"score":      fmt.Sprintf("%.4f", bestM.Score),
		"similarity": fmt.Sprintf("%.2f%%", bestM.Similarity*100),
	}).Info("start")

	state := &optimizationState{best: best, bestMetrics: bestM}
	var (
		evals    atomic.Int64
		rounds   atomic.Int64
		improves atomic.Int64
		outputMu sync.Mutex

		// guarded by outputMu
		latestPersisted int64
	)
	evals.Store(1)

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(workers, 1)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) || evals.Load() >= int64(cfg.maxEvals) {
					return
				}

				round := int(rounds.Add(1))
				remaining := cfg.maxEvals - int(evals.Load())
				if remaining <= 0 {
					return
				}
				budget := min(cfg.mayflyRoundEvals, remaining)
				iters := max(1, budget/(2*cfg.mayflyPop))

				mc, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					log.WithError(err).WithField("round", round).Error("mayfly setup failed")
					return
				}
				mc.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mc.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					m, err := cfg.evaluate(cand)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					improved := false
					checkpointDue := false
					var improveNum int64

					state.mu.Lock()
					if m.Score < state.bestMetrics.Score {
						state.best = cloneCandidate(cand)
						state.bestMetrics = m
						improved = true
						improveNum = improves.Add(1)
						checkpointDue = cfg.checkpointEvery > 0 && improveNum%int64(cfg.checkpointEvery) == 0
					}
					bestSnapshot := cloneCandidate(state.best)
					bestMetrics := state.bestMetrics
					state.mu.Unlock()

					if improved {
						log.WithFields(logrus.Fields{
							"improve":    improveNum,
							"eval":       evalNum,
							"score":      fmt.Sprintf("%.4f", bestMetrics.Score),
							"similarity": fmt.Sprintf("%.2f%%", bestMetrics.Similarity*100),
						}).Info("improved")

						outputMu.Lock()
						if improveNum > latestPersisted {
							latestPersisted = improveNum
							if cfg.writeBestCandidate != "" {
								if err := writeBestCandidateWAV(cfg, bestSnapshot); err != nil {
									log.WithError(err).Warn("failed to update best candidate wav")
								}
							}
							if checkpointDue {
								state.mu.Lock()
								n := state.checkpoints + 1
								state.mu.Unlock()
								res := &optimizationResult{
									best:        bestSnapshot,
									bestMetrics: bestMetrics,
									evals:       int(evals.Load()),
									elapsed:     time.Since(start).Seconds(),
									checkpoints: n,
								}
								if err := writeOutputs(cfg, res); err != nil {
									log.WithError(err).Warn("checkpoint write failed")
								} else {
									state.mu.Lock()
									state.checkpoints = max(state.checkpoints, n)
									state.mu.Unlock()
								}
							}
						}
						outputMu.Unlock()
					}

					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						log.WithFields(logrus.Fields{
							"round":   round,
							"eval":    evalNum,
							"elapsed": fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
							"best":    fmt.Sprintf("%.4f", bestMetrics.Score),
						}).Info("progress")
					}
					return m.Score
				}

				if _, err := runMayfly(mc); err != nil {
					log.WithError(err).WithField("round", round).Warn("mayfly round failed")
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(state.best),
		bestMetrics: state.bestMetrics,
		evals:       int(evals.Load()),
		elapsed:     time.Since(start).Seconds(),
		checkpoints: state.checkpoints,
	}, nil
}

func reserveEval(evals *atomic.Int64, maxEvals int) (int64, bool) {
	for {
		cur := evals.Load()
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if evals.CompareAndSwap(cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.bestMetrics.Score
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported mayfly variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	// Crossover draws NC/2 pairs from both populations.
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
