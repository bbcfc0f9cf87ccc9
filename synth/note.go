package synth

import "math"

// NoteEvent is a note on or off delivered with a block. Offset is the sample
// position inside the block; the engine applies events at the block start.
type NoteEvent struct {
	Note   uint8
	On     bool
	Offset int
}

// NoteOn returns an event starting note at offset.
func NoteOn(note uint8, offset int) NoteEvent {
	return NoteEvent{Note: note, On: true, Offset: offset}
}

// NoteOff returns an event releasing note at offset.
func NoteOff(note uint8, offset int) NoteEvent {
	return NoteEvent{Note: note, Offset: offset}
}

// MidiNoteToFreq converts a MIDI note number to Hz, A4 (69) = 440 Hz.
func MidiNoteToFreq(note uint8) float64 {
	return 440 * math.Pow(2, (float64(note)-69)/12)
}
