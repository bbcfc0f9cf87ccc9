package analysis

import "testing"

func TestBandDiffsIdentical(t *testing.T) {
	x := makeSine(48000, 440, 0.5, 48000)
	bands := BandDiffs(x, x, 48000)
	if len(bands) != len(bandEdges) {
		t.Fatalf("got %d bands, want %d", len(bands), len(bandEdges))
	}
	for _, b := range bands {
		if b.RMSEDB != 0 || b.RefDB != b.CandDB {
			t.Fatalf("band %s differs for identical input: %+v", b.Name, b)
		}
	}
}

func TestBandDiffsLocatesEnergy(t *testing.T) {
	sr := 48000
	ref := makeSine(sr, 2000, 0.5, sr)
	cand := makeSine(sr, 200, 0.5, sr)
	bands := BandDiffs(ref, cand, sr)

	byName := map[string]BandDiff{}
	for _, b := range bands {
		byName[b.Name] = b
	}
	mid, bass := byName["mid"], byName["bass"]
	if mid.RefDB-mid.CandDB < 20 {
		t.Fatalf("mid band: ref %f dB, cand %f dB", mid.RefDB, mid.CandDB)
	}
	if bass.CandDB-bass.RefDB < 20 {
		t.Fatalf("bass band: ref %f dB, cand %f dB", bass.RefDB, bass.CandDB)
	}
}

func TestBandDiffsDropsBandsAboveNyquist(t *testing.T) {
	x := makeSine(16000, 440, 0.5, 16000)
	for _, b := range BandDiffs(x, x, 16000) {
		if b.LoHz >= 8000 {
			t.Fatalf("band %s starts above Nyquist", b.Name)
		}
	}
	if BandDiffs(x[:100], x[:100], 16000) != nil {
		t.Fatal("expected nil for short input")
	}
}
