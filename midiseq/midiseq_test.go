package midiseq

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-synth/synth"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		msg  midi.Message
		want synth.NoteEvent
		ok   bool
	}{
		{"note on", midi.NoteOn(0, 60, 100), synth.NoteOn(60, 0), true},
		{"note on other channel", midi.NoteOn(9, 72, 1), synth.NoteOn(72, 0), true},
		{"note off", midi.NoteOff(0, 60), synth.NoteOff(60, 0), true},
		{"zero velocity", midi.NoteOn(0, 64, 0), synth.NoteOff(64, 0), true},
		{"control change", midi.ControlChange(0, 7, 100), synth.NoteEvent{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Decode(tc.msg)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("Decode() = %+v, %v; want %+v, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

// writeTestSMF encodes a one-track file at 120 bpm with 960 ticks per quarter.
func writeTestSMF(t *testing.T, events []struct {
	delta uint32
	msg   midi.Message
}) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	for _, ev := range events {
		tr.Add(ev.delta, ev.msg)
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return buf.Bytes()
}

func TestReadSMFConvertsTicksToFrames(t *testing.T) {
	data := writeTestSMF(t, []struct {
		delta uint32
		msg   midi.Message
	}{
		{0, midi.NoteOn(0, 60, 100)},
		{960, midi.NoteOff(0, 60)},
		{480, midi.NoteOn(0, 67, 90)},
		{480, midi.NoteOff(0, 67)},
	})

	got, err := ReadSMF(bytes.NewReader(data), 48000)
	if err != nil {
		t.Fatalf("ReadSMF: %v", err)
	}
	want := []TimedEvent{
		{0, synth.NoteOn(60, 0)},
		{24000, synth.NoteOff(60, 0)},
		{36000, synth.NoteOn(67, 0)},
		{48000, synth.NoteOff(67, 0)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadSMFKeepsLegatoNote(t *testing.T) {
	data := writeTestSMF(t, []struct {
		delta uint32
		msg   midi.Message
	}{
		{0, midi.NoteOn(0, 60, 100)},
		{480, midi.NoteOn(0, 62, 100)},
		{10, midi.NoteOff(0, 60)},
		{470, midi.NoteOff(0, 62)},
	})

	got, err := ReadSMF(bytes.NewReader(data), 48000)
	if err != nil {
		t.Fatalf("ReadSMF: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected the stale note-off to be dropped, got %+v", got)
	}
	if last := got[2].Event; last.On || last.Note != 62 {
		t.Fatalf("last event = %+v, want note-off 62", last)
	}
}

func TestLoadSMF(t *testing.T) {
	data := writeTestSMF(t, []struct {
		delta uint32
		msg   midi.Message
	}{
		{0, midi.NoteOn(0, 69, 100)},
		{960, midi.NoteOff(0, 69)},
	})
	path := filepath.Join(t.TempDir(), "a4.mid")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSMF(path, 44100)
	if err != nil {
		t.Fatalf("LoadSMF: %v", err)
	}
	if len(got) != 2 || got[1].Frame != 22050 {
		t.Fatalf("unexpected events: %+v", got)
	}
	if _, err := LoadSMF(path, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := LoadSMF(filepath.Join(t.TempDir(), "none.mid"), 44100); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSchedulerBlocks(t *testing.T) {
	s := NewScheduler([]TimedEvent{
		{10, synth.NoteOn(60, 0)},
		{100, synth.NoteOff(60, 0)},
		{128, synth.NoteOn(62, 0)},
		{300, synth.NoteOff(62, 0)},
	})

	first := s.Next(128)
	if len(first) != 2 || first[0].Offset != 10 || first[1].Offset != 100 {
		t.Fatalf("first block = %+v", first)
	}
	second := s.Next(128)
	if len(second) != 1 || second[0].Note != 62 || second[0].Offset != 0 {
		t.Fatalf("second block = %+v", second)
	}
	if s.Done() {
		t.Fatal("scheduler finished early")
	}
	third := s.Next(128)
	if len(third) != 1 || third[0].Offset != 300-256 {
		t.Fatalf("third block = %+v", third)
	}
	if !s.Done() || s.End() != 300 || s.Position() != 384 {
		t.Fatalf("done %v end %d position %d", s.Done(), s.End(), s.Position())
	}
	if len(s.Next(128)) != 0 {
		t.Fatal("expected no events after the end")
	}

	s.Reset()
	if again := s.Next(128); len(again) != 2 {
		t.Fatalf("after reset got %+v", again)
	}
}

func TestSchedulerMaxEventsIn(t *testing.T) {
	s := NewScheduler([]TimedEvent{
		{0, synth.NoteOn(60, 0)},
		{5, synth.NoteOff(60, 0)},
		{100, synth.NoteOn(62, 0)},
		{101, synth.NoteOff(62, 0)},
		{102, synth.NoteOn(64, 0)},
		{400, synth.NoteOff(64, 0)},
	})
	tests := []struct {
		n    int
		want int
	}{
		{n: 1, want: 1},
		{n: 3, want: 3},
		{n: 64, want: 3},
		{n: 128, want: 5},
		{n: 1024, want: 6},
	}
	for _, tc := range tests {
		if got := s.MaxEventsIn(tc.n); got != tc.want {
			t.Fatalf("MaxEventsIn(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
	if got := NewScheduler(nil).MaxEventsIn(128); got != 0 {
		t.Fatalf("empty scheduler: %d", got)
	}
}

func TestSchedulerReservedNextDoesNotAllocate(t *testing.T) {
	var events []TimedEvent
	for i := 0; i < 48; i++ {
		events = append(events, TimedEvent{Frame: int64(i), Event: synth.NoteEvent{Note: 60, On: i%2 == 0}})
	}
	s := NewScheduler(events)
	s.Reserve(64)

	allocs := testing.AllocsPerRun(20, func() {
		s.Reset()
		if got := s.Next(64); len(got) != 48 {
			t.Fatalf("block holds %d events, want 48", len(got))
		}
	})
	if allocs != 0 {
		t.Fatalf("Next allocated %.1f times per block", allocs)
	}
}
