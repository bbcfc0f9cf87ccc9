package main

import (
	"math"

	"github.com/cwbudde/algo-synth/midiseq"
	"github.com/cwbudde/algo-synth/synth"
)

type renderOptions struct {
	BlockSize    int
	SampleRate   int
	MaxFrames    int
	ReleaseFrame int // note-off frame for single-note renders, <0 never

	// Auto-stop once this many consecutive blocks after MinFrames fall below
	// Threshold (linear RMS). Threshold <= 0 disables it.
	Threshold  float64
	HoldBlocks int
	MinFrames  int
}

type renderResult struct {
	Left, Right []float32
	AutoStopped bool
}

// render runs the engine block by block. Notes come from sched when non-nil,
// otherwise note is started at frame 0 and released at opts.ReleaseFrame.
func render(e *synth.Engine, opts renderOptions, note uint8, sched *midiseq.Scheduler) renderResult {
	block := [][]float32{make([]float32, opts.BlockSize), make([]float32, opts.BlockSize)}
	res := renderResult{
		Left:  make([]float32, 0, opts.MaxFrames),
		Right: make([]float32, 0, opts.MaxFrames),
	}
	hold := max(opts.HoldBlocks, 1)
	below := 0
	released := false
	var events []synth.NoteEvent

	for frames := 0; frames < opts.MaxFrames; {
		n := min(opts.BlockSize, opts.MaxFrames-frames)
		out := [][]float32{block[0][:n], block[1][:n]}

		events = events[:0]
		switch {
		case sched != nil:
			events = append(events, sched.Next(n)...)
		case frames == 0:
			events = append(events, synth.NoteOn(note, 0))
		}
		if sched == nil && !released && opts.ReleaseFrame >= 0 && frames+n > opts.ReleaseFrame {
			events = append(events, synth.NoteOff(note, max(opts.ReleaseFrame-frames, 0)))
			released = true
		}

		e.ProcessBlock(out, events)
		res.Left = append(res.Left, out[0]...)
		res.Right = append(res.Right, out[1]...)
		frames += n

		if opts.Threshold <= 0 || frames < opts.MinFrames || (sched != nil && !sched.Done()) {
			continue
		}
		if stereoRMS(out[0], out[1]) < opts.Threshold {
			below++
			if below >= hold {
				res.AutoStopped = true
				break
			}
		} else {
			below = 0
		}
	}
	return res
}

func stereoRMS(left, right []float32) float64 {
	if len(left) == 0 {
		return 0
	}
	var sum float64
	for i := range left {
		l, r := float64(left[i]), float64(right[i])
		sum += l*l + r*r
	}
	return math.Sqrt(sum / float64(2*len(left)))
}
