package analysis

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// BandDiff compares the averaged spectra of two signals inside one frequency
// band.
type BandDiff struct {
	Name   string  `json:"name"`
	LoHz   float64 `json:"lo_hz"`
	HiHz   float64 `json:"hi_hz"`
	RefDB  float64 `json:"ref_db"`
	CandDB float64 `json:"cand_db"`
	RMSEDB float64 `json:"rmse_db"`
}

var bandEdges = []struct {
	name     string
	lo, high float64
}{
	{"sub-bass", 20, 100},
	{"bass", 100, 300},
	{"low-mid", 300, 1000},
	{"mid", 1000, 3000},
	{"hi-mid", 3000, 6000},
	{"high", 6000, 12000},
	{"air", 12000, 20000},
}

// BandDiffs splits the spectral comparison of ref and cand into octave-ish
// bands. Bands above Nyquist are omitted; nil when the signals are too short.
func BandDiffs(ref, cand []float64, sampleRate int) []BandDiff {
	n := min(len(ref), len(cand))
	size := fftSizeFor(n, maxFFTSize)
	if size < minFFTSize || sampleRate <= 0 {
		return nil
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil
	}
	hann, err := window.Hann(size)
	if err != nil {
		return nil
	}

	forward := func(dst []complex128, src []float64) { plan.Forward(dst, src) }
	specRef := averageSpectrum(forward, hann, ref[:n])
	specCand := averageSpectrum(forward, hann, cand[:n])
	binHz := float64(sampleRate) / float64(size)
	nBins := len(specRef)

	var out []BandDiff
	for _, b := range bandEdges {
		loK := max(int(b.lo/binHz), 1)
		hiK := min(int(b.high/binHz), nBins-1)
		if loK > hiK {
			continue
		}
		var sumSq, refPow, candPow float64
		for k := loK; k <= hiK; k++ {
			d := linToDB(specRef[k]) - linToDB(specCand[k])
			sumSq += d * d
			refPow += specRef[k] * specRef[k]
			candPow += specCand[k] * specCand[k]
		}
		cnt := float64(hiK - loK + 1)
		out = append(out, BandDiff{
			Name:   b.name,
			LoHz:   b.lo,
			HiHz:   math.Min(b.high, float64(sampleRate)/2),
			RefDB:  10 * math.Log10(math.Max(refPow/cnt, 1e-24)),
			CandDB: 10 * math.Log10(math.Max(candPow/cnt, 1e-24)),
			RMSEDB: math.Sqrt(sumSq / cnt),
		})
	}
	return out
}
