// Package midiseq turns MIDI input into engine note events: live messages are
// decoded one by one, Standard MIDI Files are flattened into a sample-accurate
// event list that a Scheduler hands out block by block.
package midiseq

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-synth/synth"
)

// TimedEvent is a note event at an absolute sample frame.
type TimedEvent struct {
	Frame int64
	Event synth.NoteEvent
}

// Decode converts a channel message into a note event. A note-on with velocity
// zero is a note-off. Other messages report false.
func Decode(msg midi.Message) (synth.NoteEvent, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return synth.NoteOn(key, 0), true
	case msg.GetNoteEnd(&ch, &key):
		return synth.NoteOff(key, 0), true
	default:
		return synth.NoteEvent{}, false
	}
}

// LoadSMF reads a Standard MIDI File from disk. See ReadSMF.
func LoadSMF(path string, sampleRate int) ([]TimedEvent, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi file %s: %w", path, err)
	}
	return flatten(s, sampleRate)
}

// ReadSMF parses a Standard MIDI File and returns the note events of all tracks
// merged in time order, with positions converted to frames at sampleRate through
// the file's tempo map. The result is monophonic: a note-off only survives when
// it releases the most recently started note.
func ReadSMF(r io.Reader, sampleRate int) ([]TimedEvent, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read midi: %w", err)
	}
	return flatten(s, sampleRate)
}

func flatten(s *smf.SMF, sampleRate int) ([]TimedEvent, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	var all []TimedEvent
	for _, track := range s.Tracks {
		var ticks int64
		for _, ev := range track {
			ticks += int64(ev.Delta)
			note, ok := Decode(midi.Message(ev.Message))
			if !ok {
				continue
			}
			micros := s.TimeAt(ticks)
			all = append(all, TimedEvent{
				Frame: micros * int64(sampleRate) / 1e6,
				Event: note,
			})
		}
	}

	// Releases sort ahead of starts on the same frame so a repeated note is not
	// cut off by its own predecessor.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Frame != all[j].Frame {
			return all[i].Frame < all[j].Frame
		}
		return !all[i].Event.On && all[j].Event.On
	})
	return monophonic(all), nil
}

func monophonic(events []TimedEvent) []TimedEvent {
	out := events[:0]
	sounding := -1
	for _, ev := range events {
		switch {
		case ev.Event.On:
			sounding = int(ev.Event.Note)
		case int(ev.Event.Note) == sounding:
			sounding = -1
		default:
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Scheduler hands out the events of a timeline one block at a time.
type Scheduler struct {
	events []TimedEvent
	next   int
	pos    int64
	block  []synth.NoteEvent
}

// NewScheduler creates a scheduler over events, which must be sorted by frame.
func NewScheduler(events []TimedEvent) *Scheduler {
	return &Scheduler{events: events}
}

// Next returns the events that fall inside the next n frames with block-relative
// offsets and advances the position. The returned slice is reused by the next
// call.
func (s *Scheduler) Next(n int) []synth.NoteEvent {
	s.block = s.block[:0]
	end := s.pos + int64(n)
	for s.next < len(s.events) && s.events[s.next].Frame < end {
		ev := s.events[s.next].Event
		ev.Offset = int(max(s.events[s.next].Frame-s.pos, 0))
		s.block = append(s.block, ev)
		s.next++
	}
	s.pos = end
	return s.block
}

// MaxEventsIn returns the largest number of events inside any window of n
// frames, which bounds what a single Next(n) can return.
func (s *Scheduler) MaxEventsIn(n int) int {
	best, lo := 0, 0
	for hi := range s.events {
		for s.events[hi].Frame-s.events[lo].Frame >= int64(n) {
			lo++
		}
		best = max(best, hi-lo+1)
	}
	return best
}

// Reserve sizes the reused block slice so Next(n) does not allocate. Call it
// before handing the scheduler to the audio goroutine.
func (s *Scheduler) Reserve(n int) {
	if m := s.MaxEventsIn(n); cap(s.block) < m {
		s.block = make([]synth.NoteEvent, 0, m)
	}
}

// Position returns the first frame of the next block.
func (s *Scheduler) Position() int64 { return s.pos }

// Done reports whether every event has been handed out.
func (s *Scheduler) Done() bool { return s.next >= len(s.events) }

// End returns the frame of the last event, or 0 for an empty timeline.
func (s *Scheduler) End() int64 {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Frame
}

// Reset rewinds to frame 0.
func (s *Scheduler) Reset() {
	s.next = 0
	s.pos = 0
}
