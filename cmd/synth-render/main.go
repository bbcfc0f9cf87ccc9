package main

import (
	"errors"
	"flag"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/config"
	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/internal/cliutil"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/midiseq"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	configPath := flag.String("config", "", "Run configuration JSON (optional)")
	noteFlag := flag.String("note", "A4", "Note to play: MIDI number or name such as A4")
	midiPath := flag.String("midi", "", "Standard MIDI File to render instead of a single note")
	duration := flag.Float64("duration", 2.0, "Render length in seconds (maximum length with -decay-dbfs)")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds (negative holds the note)")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 0, "Render sample rate in Hz (overrides the config)")
	blockSize := flag.Int("block-size", 0, "Block size in frames (overrides the config)")
	oscillator := flag.String("oscillator", "", "Waveform override: sine, square, saw, triangle or flute")
	output := flag.String("output", "output.wav", "Output WAV file path")
	monoOut := flag.Bool("mono", false, "Write the left channel only as a mono file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := cliutil.NewLogger(*verbose)

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.LoadJSON(*configPath)
		if err != nil {
			cliutil.Die(log, err)
		}
		cfg = c
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}
	if *blockSize > 0 {
		cfg.BlockSize = *blockSize
	}
	if *oscillator != "" {
		w, err := synth.ParseWaveform(*oscillator)
		if err != nil {
			cliutil.Die(log, err)
		}
		cfg.Settings.Oscillator = w
	}

	note, err := cliutil.ParseNote(*noteFlag)
	if err != nil {
		cliutil.Die(log, err)
	}

	var sched *midiseq.Scheduler
	if *midiPath != "" {
		events, err := midiseq.LoadSMF(*midiPath, cfg.SampleRate)
		if err != nil {
			cliutil.Die(log, err)
		}
		if len(events) == 0 {
			cliutil.Die(log, errors.New("midi file contains no notes"))
		}
		sched = midiseq.NewScheduler(events)
		log.WithFields(logrus.Fields{"file": *midiPath, "events": len(events)}).Info("loaded midi file")
	}

	e := synth.NewEngine(synth.WithParameters(cfg.Parameters()), synth.WithLogger(log))
	if err := e.Prepare(float64(cfg.SampleRate), cfg.BlockSize); err != nil {
		cliutil.Die(log, err)
	}

	sr := float64(cfg.SampleRate)
	opts := renderOptions{
		BlockSize:    cfg.BlockSize,
		SampleRate:   cfg.SampleRate,
		MaxFrames:    max(int(sr * *duration), 1),
		ReleaseFrame: -1,
		HoldBlocks:   *decayHoldBlocks,
		MinFrames:    int(sr * *minDuration),
	}
	if *releaseAfter >= 0 {
		opts.ReleaseFrame = int(sr * *releaseAfter)
	}
	if sched != nil {
		// Leave room for the release tail after the last event.
		tail := float64(cfg.Settings.Envelope.Release) + 1
		opts.MaxFrames = max(opts.MaxFrames, int(sched.End())+int(sr*tail))
	}
	if !math.IsInf(*decayDBFS, 1) {
		opts.Threshold = float64(dsp.DBToGain(float32(*decayDBFS)))
	}

	log.WithFields(logrus.Fields{
		"note":        note,
		"oscillator":  cfg.Settings.Oscillator.String(),
		"sample_rate": cfg.SampleRate,
		"block_size":  cfg.BlockSize,
		"max_seconds": float64(opts.MaxFrames) / sr,
	}).Info("rendering")

	res := render(e, opts, note, sched)
	if res.AutoStopped {
		log.WithFields(logrus.Fields{
			"frames":    len(res.Left),
			"seconds":   fmt.Sprintf("%.3f", float64(len(res.Left))/sr),
			"threshold": *decayDBFS,
		}).Info("auto-stop")
	}

	write := func() error { return wavio.WriteStereo(*output, res.Left, res.Right, cfg.SampleRate) }
	if *monoOut {
		write = func() error { return wavio.WriteMono(*output, res.Left, cfg.SampleRate) }
	}
	if err := write(); err != nil {
		cliutil.Die(log, err)
	}

	mono := wavio.Downmix(res.Left, res.Right)
	log.WithFields(logrus.Fields{
		"output":         *output,
		"frames":         len(res.Left),
		"peak_dbfs":      fmt.Sprintf("%.2f", analysis.DBFS(analysis.Peak(mono))),
		"rms_dbfs":       fmt.Sprintf("%.2f", analysis.DBFS(analysis.RMS(mono))),
		"fundamental_hz": fmt.Sprintf("%.2f", analysis.Fundamental(mono, cfg.SampleRate)),
	}).Info("wrote file")

	if analysis.Peak(mono) > 1 {
		log.Warn("output clips; lower gain in the config")
	}
}
