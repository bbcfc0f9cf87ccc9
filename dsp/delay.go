package dsp

import "math"

// DelayLine is a fixed-size circular sample buffer with fractional reads.
// The write cursor always stays in [0, Len()).
type DelayLine struct {
	buffer   []float32
	writePos int
}

// NewDelayLine creates a delay line holding size samples (at least 2).
func NewDelayLine(size int) *DelayLine {
	if size < 2 {
		size = 2
	}
	return &DelayLine{buffer: make([]float32, size)}
}

// NewDelayLineForTime sizes a delay line for maxSeconds at sampleRate plus one
// guard sample for the interpolation neighbour.
func NewDelayLineForTime(sampleRate float64, maxSeconds float64) *DelayLine {
	return NewDelayLine(int(sampleRate*maxSeconds) + 1)
}

// Len returns the buffer capacity in samples.
func (d *DelayLine) Len() int { return len(d.buffer) }

// WritePos returns the index the next Write will fill.
func (d *DelayLine) WritePos() int { return d.writePos }

// MaxDelay returns the longest delay, in samples, Read can interpolate.
func (d *DelayLine) MaxDelay() float32 { return float32(len(d.buffer) - 1) }

// Write stores one sample and advances the write cursor.
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// ReadInt reads the sample written delay writes ago (1 = most recent).
func (d *DelayLine) ReadInt(delay int) float32 {
	size := len(d.buffer)
	readPos := (d.writePos - delay) % size
	if readPos < 0 {
		readPos += size
	}
	return d.buffer[readPos]
}

// Read reads at a fractional delay in samples with linear interpolation between
// the two nearest stored samples. The delay is clamped to [0, MaxDelay()].
func (d *DelayLine) Read(delay float32) float32 {
	if delay < 0 {
		delay = 0
	}
	if maxDelay := d.MaxDelay(); delay > maxDelay {
		delay = maxDelay
	}

	size := len(d.buffer)
	readPos := float64(d.writePos) - float64(delay)
	if readPos < 0 {
		readPos += float64(size)
	}

	base := math.Floor(readPos)
	frac := float32(readPos - base)
	i1 := int(base) % size
	i2 := i1 + 1
	if i2 >= size {
		i2 = 0
	}

	return d.buffer[i1]*(1-frac) + d.buffer[i2]*frac
}

// Reset clears the buffer and rewinds the write cursor.
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
