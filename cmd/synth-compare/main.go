package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/cliutil"
	"github.com/cwbudde/algo-synth/internal/wavio"
)

type report struct {
	Reference string              `json:"reference"`
	Candidate string              `json:"candidate"`
	Channel   string              `json:"channel"`
	Metrics   analysis.Metrics    `json:"metrics"`
	Bands     []analysis.BandDiff `json:"bands,omitempty"`
}

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	channel := flag.String("channel", "mix", "Channel to compare: mix, left or right")
	bands := flag.Bool("bands", false, "Include a per-band spectral breakdown")
	text := flag.Bool("text", false, "Print a readable table instead of JSON")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := cliutil.NewLogger(*verbose)
	if *candidatePath == "" {
		cliutil.Die(log, fmt.Errorf("-candidate is required"))
	}

	rep, err := compareFiles(*referencePath, *candidatePath, *sampleRate, *channel, *bands)
	if err != nil {
		cliutil.Die(log, err)
	}
	if *text {
		printTable(os.Stdout, rep)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		cliutil.Die(log, fmt.Errorf("json encode: %w", err))
	}
}

// loadAt reads one view of a WAV file (mix, left or right) at sampleRate.
func loadAt(path string, sampleRate int, channel string) ([]float64, error) {
	var (
		x   []float64
		sr  int
		err error
	)
	switch channel {
	case "mix":
		x, sr, err = wavio.ReadMono(path)
	case "left", "right":
		var l, r []float32
		l, r, sr, err = wavio.ReadStereo(path)
		src := l
		if channel == "right" {
			src = r
		}
		x = make([]float64, len(src))
		for i, v := range src {
			x[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unknown channel %q (use mix, left or right)", channel)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	x, err = wavio.ResampleIfNeeded(x, sr, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("resample %s: %w", path, err)
	}
	return x, nil
}

func compareFiles(referencePath, candidatePath string, sampleRate int, channel string, withBands bool) (*report, error) {
	ref, err := loadAt(referencePath, sampleRate, channel)
	if err != nil {
		return nil, err
	}
	cand, err := loadAt(candidatePath, sampleRate, channel)
	if err != nil {
		return nil, err
	}
	rep := &report{
		Reference: referencePath,
		Candidate: candidatePath,
		Channel:   channel,
		Metrics:   analysis.Compare(ref, cand, sampleRate),
	}
	if withBands {
		rep.Bands = analysis.BandDiffs(ref, cand, sampleRate)
	}
	return rep, nil
}

func printTable(w io.Writer, rep *report) {
	m := rep.Metrics
	fmt.Fprintf(w, "Reference frames: %d\n", m.ReferenceFrames)
	fmt.Fprintf(w, "Candidate frames: %d\n", m.CandidateFrames)
	fmt.Fprintf(w, "Aligned frames:   %d\n", m.AlignedFrames)
	lagMS := 0.0
	if m.SampleRate > 0 {
		lagMS = 1000 * float64(m.LagSamples) / float64(m.SampleRate)
	}
	fmt.Fprintf(w, "Lag:              %d samples (%.3f ms)\n\n", m.LagSamples, lagMS)
	fmt.Fprintf(w, "Time RMSE:        %.6f\n", m.TimeRMSE)
	fmt.Fprintf(w, "Envelope RMSE:    %.1f dB\n", m.EnvelopeRMSEDB)
	fmt.Fprintf(w, "Spectral RMSE:    %.1f dB\n", m.SpectralRMSEDB)
	fmt.Fprintf(w, "Pitch:            ref=%.2f Hz  cand=%.2f Hz  error=%.1f cents\n", m.RefPitchHz, m.CandPitchHz, m.PitchErrorCents)
	fmt.Fprintf(w, "Release slope:    ref=%.1f dB/s  cand=%.1f dB/s\n", m.RefReleaseDBPerS, m.CandReleaseDBPerS)
	fmt.Fprintf(w, "Score:            %.4f  (0 best, 1 worst)\n", m.Score)
	fmt.Fprintf(w, "Similarity:       %.2f%%\n", m.Similarity*100)

	if len(rep.Bands) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, b := range rep.Bands {
		marker := ""
		if b.RMSEDB > 15 {
			marker = " <<<"
		}
		fmt.Fprintf(w, "  %-9s %5.0f-%5.0f Hz  RMSE=%5.1fdB  ref=%6.1fdB  cand=%6.1fdB  diff=%+5.1fdB%s\n",
			b.Name, b.LoHz, b.HiHz, b.RMSEDB, b.RefDB, b.CandDB, b.CandDB-b.RefDB, marker)
	}
}
