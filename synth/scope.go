package synth

import (
	"math"
	"sync/atomic"
)

// Scope is a circular buffer holding the most recent output samples for a
// display. The audio goroutine writes, any goroutine may read; a reader can see
// a mix of two blocks but never a torn sample.
type Scope struct {
	samples  []atomic.Uint32
	writePos atomic.Int64
}

// NewScope creates a scope holding size samples.
func NewScope(size int) *Scope {
	if size < 1 {
		size = 1
	}
	return &Scope{samples: make([]atomic.Uint32, size)}
}

// Len returns the capacity in samples.
func (s *Scope) Len() int { return len(s.samples) }

// Write appends block, overwriting the oldest samples.
func (s *Scope) Write(block []float32) {
	size := int64(len(s.samples))
	pos := s.writePos.Load()
	for _, v := range block {
		s.samples[pos].Store(math.Float32bits(v))
		pos++
		if pos == size {
			pos = 0
		}
	}
	s.writePos.Store(pos)
}

// Snapshot copies the buffer into dst, oldest sample first, and returns the
// filled slice. dst is grown when shorter than Len.
func (s *Scope) Snapshot(dst []float32) []float32 {
	size := len(s.samples)
	if cap(dst) < size {
		dst = make([]float32, size)
	}
	dst = dst[:size]
	start := int(s.writePos.Load())
	for i := range dst {
		idx := start + i
		if idx >= size {
			idx -= size
		}
		dst[i] = math.Float32frombits(s.samples[idx].Load())
	}
	return dst
}

// Reset clears the buffer.
func (s *Scope) Reset() {
	for i := range s.samples {
		s.samples[i].Store(0)
	}
	s.writePos.Store(0)
}
