package synth

import (
	"math"
	"testing"
)

func sineBlock(freq, sampleRate float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func tailRMS(samples []float32) float64 {
	tail := samples[len(samples)/2:]
	var sum float64
	for _, v := range tail {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(tail)))
}

func TestFilterChainPassesAndStops(t *testing.T) {
	const sr = 48000
	tests := []struct {
		name   string
		hp, lp float64
		freq   float64
		minRMS float64
		maxRMS float64
	}{
		{"open passes 1k", MinCutoff, MaxCutoff, 1000, 0.69, 0.72},
		{"low-pass stops 10k", MinCutoff, 1000, 10000, 0, 0.001},
		{"high-pass stops 100", 2000, MaxCutoff, 100, 0, 0.001},
		{"band passes centre", 500, 5000, 1600, 0.65, 0.72},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFilterChain()
			f.Prepare(sr, 4096, 1)
			f.SetCutoffs(tc.hp, tc.lp)
			buf := sineBlock(tc.freq, sr, 4096)
			f.Process([][]float32{buf}, len(buf))
			rms := tailRMS(buf)
			if rms < tc.minRMS || rms > tc.maxRMS {
				t.Fatalf("rms = %f, want [%f, %f]", rms, tc.minRMS, tc.maxRMS)
			}
		})
	}
}

func TestFilterChainRedesignsOnlyOnChange(t *testing.T) {
	f := NewFilterChain()
	f.Prepare(44100, 64, 2)
	if !f.SetCutoffs(100, 5000) {
		t.Fatal("expected redesign for new cutoffs")
	}
	if f.SetCutoffs(100, 5000) {
		t.Fatal("unchanged cutoffs must not redesign")
	}
	if !f.SetCutoffs(100, 6000) {
		t.Fatal("expected redesign for new low-pass cutoff")
	}
	hp, lp := f.Cutoffs()
	if hp != 100 || lp != 6000 {
		t.Fatalf("Cutoffs() = %f, %f", hp, lp)
	}
}

func TestFilterChainClampsBelowNyquist(t *testing.T) {
	f := NewFilterChain()
	f.Prepare(8000, 256, 1)
	f.SetCutoffs(MinCutoff, MaxCutoff)
	buf := sineBlock(440, 8000, 256)
	f.Process([][]float32{buf}, len(buf))
	if !allFinite(buf) {
		t.Fatal("filter produced non-finite output above Nyquist cutoff")
	}
	if got := f.clampCutoff(MaxCutoff); got != 0.49*8000 {
		t.Fatalf("clampCutoff = %f, want %f", got, 0.49*8000)
	}
}
