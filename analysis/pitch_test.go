package analysis

import (
	"math"
	"testing"
)

func TestFundamentalOfSines(t *testing.T) {
	tests := []struct {
		sr   int
		freq float64
	}{
		{44100, 440},
		{48000, 261.63},
		{44100, 1234.5},
		{96000, 55},
	}
	for _, tc := range tests {
		x := makeSine(tc.sr, tc.freq, 0.5, 32768)
		got := Fundamental(x, tc.sr)
		if math.Abs(got-tc.freq) > 0.01*tc.freq {
			t.Fatalf("Fundamental(%g Hz @ %d) = %f", tc.freq, tc.sr, got)
		}
	}
}

func TestFundamentalDegenerate(t *testing.T) {
	if got := Fundamental(make([]float64, 8192), 48000); got != 0 {
		t.Fatalf("silence: got %f", got)
	}
	if got := Fundamental(makeSine(48000, 440, 1, 100), 48000); got != 0 {
		t.Fatalf("short input: got %f", got)
	}
}

func TestToneLevel(t *testing.T) {
	const sr = 48000
	x := makeSine(sr, 1000, 0.6, 4800)
	level, err := ToneLevel(x, 1000, sr)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(level-0.6) > 0.02 {
		t.Fatalf("level at 1 kHz = %f, want 0.6", level)
	}
	off, err := ToneLevel(x, 3000, sr)
	if err != nil {
		t.Fatal(err)
	}
	if off > 0.01 {
		t.Fatalf("level at 3 kHz = %f, want near 0", off)
	}
	if _, err := ToneLevel(x, sr, sr); err == nil {
		t.Fatal("expected error above Nyquist")
	}
	if _, err := ToneLevel(nil, 1000, sr); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestPeakAndRMS(t *testing.T) {
	x := []float64{0.5, -1, 0.25, 0}
	if Peak(x) != 1 {
		t.Fatalf("Peak = %f", Peak(x))
	}
	want := math.Sqrt((0.25 + 1 + 0.0625) / 4)
	if math.Abs(RMS(x)-want) > 1e-12 {
		t.Fatalf("RMS = %f, want %f", RMS(x), want)
	}
	if RMS(nil) != 0 {
		t.Fatal("RMS of empty input should be 0")
	}
	if DBFS(1) != 0 || math.Abs(DBFS(0)+240) > 1e-9 {
		t.Fatalf("DBFS(1) = %f, DBFS(0) = %f", DBFS(1), DBFS(0))
	}
}
