package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func sine(n int, freq, sr float64, amp float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/sr))
	}
	return out
}

func TestWriteStereoReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.wav")
	left := sine(4800, 440, 48000, 0.5)
	right := sine(4800, 660, 48000, 0.25)
	if err := WriteStereo(path, left, right, 48000); err != nil {
		t.Fatalf("WriteStereo: %v", err)
	}

	l, r, sr, err := ReadStereo(path)
	if err != nil {
		t.Fatalf("ReadStereo: %v", err)
	}
	if sr != 48000 || len(l) != len(left) || len(r) != len(right) {
		t.Fatalf("got rate %d, %d/%d frames", sr, len(l), len(r))
	}
	const tol = 2.0 / 32768
	for i := range left {
		if math.Abs(float64(l[i]-left[i])) > tol || math.Abs(float64(r[i]-right[i])) > tol {
			t.Fatalf("frame %d: got %f/%f want %f/%f", i, l[i], r[i], left[i], right[i])
		}
	}

	mono, sr, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	want := Downmix(left, right)
	for i := range mono {
		if math.Abs(mono[i]-want[i]) > tol {
			t.Fatalf("mono frame %d: got %f want %f", i, mono[i], want[i])
		}
	}
}

func TestWriteMonoReadStereoDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	if err := WriteMono(path, sine(1000, 100, 44100, 0.8), 44100); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}
	l, r, _, err := ReadStereo(path)
	if err != nil {
		t.Fatalf("ReadStereo: %v", err)
	}
	for i := range l {
		if l[i] != r[i] {
			t.Fatalf("frame %d: %f != %f", i, l[i], r[i])
		}
	}
}

func TestWriteStereoLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := WriteStereo(path, make([]float32, 3), make([]float32, 4), 48000); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestReadMonoMissingFile(t *testing.T) {
	if _, _, err := ReadMono(filepath.Join(t.TempDir(), "none.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResampleIfNeeded(t *testing.T) {
	in := make([]float64, 4800)
	same, err := ResampleIfNeeded(in, 48000, 48000)
	if err != nil || &same[0] != &in[0] {
		t.Fatalf("matching rates must return the input: %v", err)
	}

	out, err := ResampleIfNeeded(in, 48000, 24000)
	if err != nil {
		t.Fatalf("ResampleIfNeeded: %v", err)
	}
	if math.Abs(float64(len(out)-2400)) > 64 {
		t.Fatalf("resampled length = %d, want about 2400", len(out))
	}
}

func TestInterleave(t *testing.T) {
	got := Interleave([]float32{1, 2, 3}, []float32{4, 5})
	want := []float32{1, 4, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("Interleave = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Interleave = %v, want %v", got, want)
		}
	}
}
