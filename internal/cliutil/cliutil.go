// Package cliutil holds the logging and flag helpers shared by the commands.
package cliutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a text logger on stderr. Verbose enables debug output.
func NewLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Die logs err and exits with status 1.
func Die(log logrus.FieldLogger, err error) {
	log.WithError(err).Error("fatal")
	os.Exit(1)
}

// ParseWorkers parses a worker count flag: a positive integer or "auto" (0).
func ParseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

// ParseNote accepts a MIDI note number or a note name such as "A4" or "c#3".
func ParseNote(raw string) (uint8, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("note %d outside 0..127", n)
		}
		return uint8(n), nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note %q", raw)
	}

	semis := map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}
	base, ok := semis[strings.ToLower(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note %q", raw)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		if len(rest) > 1 {
			base--
			rest = rest[1:]
		}
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note %q", raw)
	}
	n := (octave+1)*12 + base
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note %q outside 0..127", raw)
	}
	return uint8(n), nil
}
