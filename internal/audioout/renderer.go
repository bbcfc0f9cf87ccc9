// Package audioout plays the engine in real time. A Renderer pulls engine blocks
// on demand and encodes them as interleaved little-endian float32, which the
// oto backend (or the headless twin) consumes as an io.Reader.
package audioout

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/midiseq"
	"github.com/cwbudde/algo-synth/synth"
)

// Channels is the interleaved output layout.
const Channels = 2

const bytesPerSample = 4

// Renderer is an io.Reader producing engine output. Note events may be queued
// from any goroutine; Read runs on the audio goroutine only.
type Renderer struct {
	engine    *synth.Engine
	blockSize int
	events    chan synth.NoteEvent
	sched     atomic.Pointer[timeline]

	block   [][]float32
	evbuf   []synth.NoteEvent
	encoded []byte
	pending []byte
	frames  atomic.Int64
}

// NewRenderer wraps a prepared engine. queue bounds the number of note events
// waiting for the next block.
func NewRenderer(e *synth.Engine, blockSize, queue int) *Renderer {
	blockSize = max(1, min(blockSize, e.MaxBlockSize()))
	r := &Renderer{
		engine:    e,
		blockSize: blockSize,
		events:    make(chan synth.NoteEvent, max(queue, 1)),
		evbuf:     make([]synth.NoteEvent, 0, max(queue, 1)),
		encoded:   make([]byte, blockSize*Channels*bytesPerSample),
	}
	r.block = make([][]float32, Channels)
	for ch := range r.block {
		r.block[ch] = make([]float32, blockSize)
	}
	return r
}

// NoteOn queues a note start. It reports false when the queue is full.
func (r *Renderer) NoteOn(note uint8) bool { return r.push(synth.NoteOn(note, 0)) }

// NoteOff queues a note release. It reports false when the queue is full.
func (r *Renderer) NoteOff(note uint8) bool { return r.push(synth.NoteOff(note, 0)) }

func (r *Renderer) push(ev synth.NoteEvent) bool {
	select {
	case r.events <- ev:
		return true
	default:
		return false
	}
}

// timeline pairs a scheduler with an event buffer large enough for its densest
// block plus a full live queue.
type timeline struct {
	sched  *midiseq.Scheduler
	events []synth.NoteEvent
}

// SetScheduler plays a MIDI timeline alongside live events. nil removes it.
// The scheduler must not be shared with another renderer.
func (r *Renderer) SetScheduler(s *midiseq.Scheduler) {
	if s == nil {
		r.sched.Store(nil)
		return
	}
	s.Reserve(r.blockSize)
	r.sched.Store(&timeline{
		sched:  s,
		events: make([]synth.NoteEvent, 0, s.MaxEventsIn(r.blockSize)+cap(r.evbuf)),
	})
}

// Frames returns the number of frames rendered so far.
func (r *Renderer) Frames() int64 { return r.frames.Load() }

// Read fills p with interleaved float32 frames. It never blocks and never fails.
func (r *Renderer) Read(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if len(r.pending) == 0 {
			r.renderBlock()
		}
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		p = p[n:]
		total += n
	}
	return total, nil
}

// gatherEvents collects the scheduled and live events for the next block into
// a preallocated buffer. Live events that do not fit wait for the next block.
func (r *Renderer) gatherEvents() []synth.NoteEvent {
	buf := r.evbuf[:0]
	if tl := r.sched.Load(); tl != nil {
		buf = append(tl.events[:0], tl.sched.Next(r.blockSize)...)
	}
	for len(buf) < cap(buf) {
		select {
		case ev := <-r.events:
			buf = append(buf, ev)
		default:
			return buf
		}
	}
	return buf
}

func (r *Renderer) renderBlock() {
	r.engine.ProcessBlock(r.block, r.gatherEvents())

	left, right := r.block[0], r.block[1]
	for i := 0; i < r.blockSize; i++ {
		off := i * Channels * bytesPerSample
		binary.LittleEndian.PutUint32(r.encoded[off:], math.Float32bits(left[i]))
		binary.LittleEndian.PutUint32(r.encoded[off+bytesPerSample:], math.Float32bits(right[i]))
	}
	r.pending = r.encoded
	r.frames.Add(int64(r.blockSize))
}
