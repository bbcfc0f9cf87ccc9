// Package analysis measures rendered synthesizer output: pitch, level and
// objective distances between a reference recording and a candidate render.
package analysis

import (
	"math"

	approx "github.com/cwbudde/algo-approx"
)

// Metrics contains distance and similarity measurements between two audio signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`

	RefPitchHz        float64 `json:"ref_pitch_hz"`
	CandPitchHz       float64 `json:"cand_pitch_hz"`
	PitchErrorCents   float64 `json:"pitch_error_cents"`
	RefReleaseDBPerS  float64 `json:"ref_release_db_per_s"`
	CandReleaseDBPerS float64 `json:"cand_release_db_per_s"`
	ReleaseDiffDBPerS float64 `json:"release_diff_db_per_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Envelope analysis frame and hop in samples.
const (
	envFrame = 256
	envHop   = 128
)

// Compare returns objective distance metrics and a combined score in [0,1],
// where 0 means identical. Similarity maps the score back to (0,1].
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	ref := normalizeRMS(trimLeadingSilence(reference, 1e-6), 0.1)
	cand := normalizeRMS(trimLeadingSilence(candidate, 1e-6), 0.1)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}

	// Both signals start at their first non-silent sample, so only a short
	// residual offset is searched.
	maxLag := min(sampleRate/50, len(ref)-1, len(cand)-1)
	m.LagSamples = estimateLag(ref, cand, max(maxLag, 1))

	refA, candA := alignByLag(ref, cand, m.LagSamples)
	n := min(len(refA), len(candA), sampleRate*12)
	if n < envFrame*2 {
		return m
	}
	refA, candA = refA[:n], candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, envFrame, envHop)
	candEnv := rmsEnvelope(candA, envFrame, envHop)
	if envN := min(len(refEnv), len(candEnv)); envN > 0 {
		diff := make([]float64, envN)
		for i := range diff {
			diff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = RMS(diff)
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA)

	m.RefPitchHz = Fundamental(refA, sampleRate)
	m.CandPitchHz = Fundamental(candA, sampleRate)
	if m.RefPitchHz > 0 && m.CandPitchHz > 0 {
		m.PitchErrorCents = math.Abs(1200 * math.Log2(m.CandPitchHz/m.RefPitchHz))
	}

	hopSec := float64(envHop) / float64(sampleRate)
	// Slopes stay zero without a usable tail so Metrics always encodes as JSON.
	refSlope := releaseSlopeDBPerS(refEnv, hopSec)
	candSlope := releaseSlopeDBPerS(candEnv, hopSec)
	if isFinite(refSlope) && isFinite(candSlope) {
		m.RefReleaseDBPerS = refSlope
		m.CandReleaseDBPerS = candSlope
		m.ReleaseDiffDBPerS = math.Abs(refSlope - candSlope)
	}

	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30)
	specNorm := clamp01(m.SpectralRMSEDB / 30)
	pitchNorm := clamp01(m.PitchErrorCents / 100)
	relNorm := clamp01(m.ReleaseDiffDBPerS / 40)
	m.Score = clamp01(0.20*timeNorm + 0.25*envNorm + 0.30*specNorm + 0.15*pitchNorm + 0.10*relNorm)
	m.Similarity = clamp01(float64(approx.FastExp(float32(-4 * m.Score))))

	return m
}

// releaseSlopeDBPerS fits a line to the envelope from its loudest frame until it
// has fallen 60 dB, and returns the slope. NaN when there is no usable tail.
func releaseSlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peakIdx := 0
	for i, v := range env {
		if v > env[peakIdx] {
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	floor := linToDB(env[peakIdx]) - 60
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < floor {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
