package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-synth/config"
	"github.com/cwbudde/algo-synth/internal/cliutil"
	"github.com/cwbudde/algo-synth/synth"
)

var errQuit = errors.New("quit")

// noteSink receives notes from the control goroutine.
type noteSink interface {
	NoteOn(note uint8) bool
	NoteOff(note uint8) bool
}

type session struct {
	notes      noteSink
	params     *synth.Parameters
	sampleRate int
	blockSize  int
}

// handle runs one console command:
//
//	on <note> | off <note> | set <param> <value> | get <param> | save <path> | quit
func (s *session) handle(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "on", "off":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <note>", cmd)
		}
		note, err := cliutil.ParseNote(args[0])
		if err != nil {
			return "", err
		}
		var ok bool
		if cmd == "on" {
			ok = s.notes.NoteOn(note)
		} else {
			ok = s.notes.NoteOff(note)
		}
		if !ok {
			return "", errors.New("event queue full")
		}
		return fmt.Sprintf("%s %d", cmd, note), nil
	case "set":
		if len(args) != 2 {
			return "", errors.New("usage: set <param> <value>")
		}
		id, err := synth.ParseParamID(args[0])
		if err != nil {
			return "", err
		}
		v, err := parseValue(id, args[1])
		if err != nil {
			return "", err
		}
		s.params.Set(id, v)
		return fmt.Sprintf("%s = %g", id, s.params.Get(id)), nil
	case "get":
		if len(args) != 1 {
			return "", errors.New("usage: get <param>")
		}
		id, err := synth.ParseParamID(args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %g", id, s.params.Get(id)), nil
	case "save":
		if len(args) != 1 {
			return "", errors.New("usage: save <path>")
		}
		if err := config.WriteJSON(args[0], config.FromParameters(s.sampleRate, s.blockSize, s.params)); err != nil {
			return "", err
		}
		return "saved " + args[0], nil
	case "quit", "exit":
		return "", errQuit
	default:
		return "", fmt.Errorf("unknown command %q", cmd)
	}
}

// parseValue accepts waveform names for the oscillator parameter.
func parseValue(id synth.ParamID, raw string) (float64, error) {
	if id == synth.ParamOscillator {
		if w, err := synth.ParseWaveform(raw); err == nil {
			return float64(w), nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", raw)
	}
	return v, nil
}
