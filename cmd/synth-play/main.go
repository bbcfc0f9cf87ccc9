package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-synth/config"
	"github.com/cwbudde/algo-synth/internal/audioout"
	"github.com/cwbudde/algo-synth/internal/cliutil"
	"github.com/cwbudde/algo-synth/midiseq"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	configPath := flag.String("config", "", "Run configuration JSON (optional)")
	noteFlag := flag.String("note", "A4", "Note to play: MIDI number or name")
	duration := flag.Float64("duration", 1.0, "Seconds to hold the note")
	tail := flag.Float64("tail", 2.0, "Seconds to keep playing after the last note-off")
	midiPath := flag.String("midi", "", "Standard MIDI File to play instead of a single note")
	interactive := flag.Bool("interactive", false, "Read on/off/set/get/save commands from stdin")
	buffer := flag.Duration("buffer", 40*time.Millisecond, "Output buffer length")
	queue := flag.Int("queue", 256, "Note event queue capacity")
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

	params := cfg.Parameters()
	e := synth.NewEngine(synth.WithParameters(params), synth.WithLogger(log))
	if err := e.Prepare(float64(cfg.SampleRate), cfg.BlockSize); err != nil {
		cliutil.Die(log, err)
	}
	r := audioout.NewRenderer(e, cfg.BlockSize, *queue)

	player, err := audioout.NewPlayer(r, cfg.SampleRate, *buffer)
	if err != nil {
		cliutil.Die(log, err)
	}
	defer func() {
		if err := player.Close(); err != nil {
			log.WithError(err).Warn("closing player")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"sample_rate": cfg.SampleRate,
		"block_size":  cfg.BlockSize,
		"buffer":      buffer.String(),
	}).Info("audio started")
	player.Start()

	switch {
	case *interactive:
		s := &session{notes: r, params: params, sampleRate: cfg.SampleRate, blockSize: cfg.BlockSize}
		runConsole(ctx, s, log)
	case *midiPath != "":
		events, err := midiseq.LoadSMF(*midiPath, cfg.SampleRate)
		if err != nil {
			cliutil.Die(log, err)
		}
		sched := midiseq.NewScheduler(events)
		r.SetScheduler(sched)
		length := time.Duration(float64(sched.End())/float64(cfg.SampleRate)*float64(time.Second)) + seconds(*tail)
		log.WithFields(logrus.Fields{"file": *midiPath, "events": len(events)}).Info("playing midi file")
		wait(ctx, length)
	default:
		note, err := cliutil.ParseNote(*noteFlag)
		if err != nil {
			cliutil.Die(log, err)
		}
		r.NoteOn(note)
		log.WithField("note", note).Info("note on")
		if wait(ctx, seconds(*duration)) {
			r.NoteOff(note)
			log.WithField("note", note).Info("note off")
			wait(ctx, seconds(*tail))
		}
	}

	player.Stop()
	log.WithField("frames", r.Frames()).Info("stopped")
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// wait blocks for d and reports false when ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func runConsole(ctx context.Context, s *session, log logrus.FieldLogger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			out, err := s.handle(line)
			if errors.Is(err, errQuit) {
				return
			}
			if err != nil {
				log.WithError(err).Warn("command failed")
				continue
			}
			if out != "" {
				fmt.Println(out)
			}
		}
	}
}
