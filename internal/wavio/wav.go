// Package wavio reads and writes the 16-bit WAV files used by the tools.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadMono reads a WAV file and downmixes all channels to mono.
func ReadMono(path string) ([]float64, int, error) {
	data, ch, rate, err := read(path)
	if err != nil {
		return nil, 0, err
	}
	frames := len(data) / ch
	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, rate, nil
}

// ReadStereo reads a WAV file as left and right channels. Mono files are
// duplicated, channels beyond the second are dropped.
func ReadStereo(path string) (left, right []float32, sampleRate int, err error) {
	data, ch, rate, err := read(path)
	if err != nil {
		return nil, nil, 0, err
	}
	frames := len(data) / ch
	left = make([]float32, frames)
	right = make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = data[i*ch]
		right[i] = left[i]
		if ch > 1 {
			right[i] = data[i*ch+1]
		}
	}
	return left, right, rate, nil
}

func read(path string) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid wav sample-rate %d: %s", buf.Format.SampleRate, path)
	}
	return buf.Data, buf.Format.NumChannels, buf.Format.SampleRate, nil
}

// ResampleIfNeeded converts in from fromRate to toRate. The input is returned
// unchanged when the rates match.
func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d: %w", fromRate, toRate, err)
	}
	return r.Process(in), nil
}

// WriteStereo writes left and right as a 16-bit stereo file, creating parent
// directories as needed.
func WriteStereo(path string, left []float32, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch: %d vs %d", len(left), len(right))
	}
	return WriteInterleaved(path, Interleave(left, right), 2, sampleRate)
}

// WriteMono writes a 16-bit mono file.
func WriteMono(path string, data []float32, sampleRate int) error {
	return WriteInterleaved(path, data, 1, sampleRate)
}

// WriteInterleaved writes interleaved samples with the given channel count.
func WriteInterleaved(path string, samples []float32, channels int, sampleRate int) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}

// Interleave merges two channels into one L/R buffer.
func Interleave(left, right []float32) []float32 {
	out := make([]float32, 2*min(len(left), len(right)))
	for i := 0; i < len(out)/2; i++ {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}

// Downmix averages two channels into a float64 mono signal for analysis.
func Downmix(left, right []float32) []float64 {
	out := make([]float64, min(len(left), len(right)))
	for i := range out {
		out[i] = 0.5 * (float64(left[i]) + float64(right[i]))
	}
	return out
}
