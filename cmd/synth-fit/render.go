package main

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/synth"
)

type renderConfig struct {
	note            uint8
	sampleRate      int
	blockSize       int
	decayDBFS       float64
	decayHoldBlocks int
	minDuration     float64
	maxDuration     float64
}

// renderCandidate plays one note through a fresh engine until the output stays
// below decayDBFS or maxDuration is reached. It returns the mono downmix and
// the stereo channels.
func renderCandidate(p *synth.Parameters, rc renderConfig, releaseAfter float64) ([]float64, [2][]float32, error) {
	e := synth.NewEngine(synth.WithParameters(p))
	if err := e.Prepare(float64(rc.sampleRate), rc.blockSize); err != nil {
		return nil, [2][]float32{}, err
	}

	sr := float64(rc.sampleRate)
	maxFrames := max(int(rc.maxDuration*sr), rc.blockSize)
	minFrames := int(rc.minDuration * sr)
	releaseFrame := int(releaseAfter * sr)
	threshold := float64(dsp.DBToGain(float32(rc.decayDBFS)))
	hold := max(rc.decayHoldBlocks, 1)

	left := make([]float32, 0, maxFrames)
	right := make([]float32, 0, maxFrames)
	block := [2][]float32{make([]float32, rc.blockSize), make([]float32, rc.blockSize)}
	events := make([]synth.NoteEvent, 0, 2)
	released := false
	below := 0

	for frames := 0; frames < maxFrames; {
		n := min(rc.blockSize, maxFrames-frames)
		out := [][]float32{block[0][:n], block[1][:n]}

		events = events[:0]
		if frames == 0 {
			events = append(events, synth.NoteOn(rc.note, 0))
		}
		if !released && frames+n > releaseFrame {
			events = append(events, synth.NoteOff(rc.note, max(releaseFrame-frames, 0)))
			released = true
		}
		e.ProcessBlock(out, events)
		left = append(left, out[0]...)
		right = append(right, out[1]...)
		frames += n

		if !released || frames < minFrames {
			continue
		}
		if blockRMS(out[0], out[1]) < threshold {
			below++
			if below >= hold {
				break
			}
		} else {
			below = 0
		}
	}
	return wavio.Downmix(left, right), [2][]float32{left, right}, nil
}

func blockRMS(left, right []float32) float64 {
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
