// Package wavio reads and writes the mono WAV files the tools exchange and
// converts between sample rates.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadMono decodes a WAV file and averages its channels into one. Files
// without frames or with a non-positive sample rate are rejected.
func ReadMono(path string) ([]float64, int, error) {
	return ReadChannel(path, -1)
}

// ReadChannel decodes a WAV file and returns channel ch, or the average of
// all channels when ch is negative.
func ReadChannel(path string, ch int) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	rate := buf.Format.SampleRate
	if rate <= 0 {
		return nil, 0, fmt.Errorf("invalid wav sample-rate %d: %s", rate, path)
	}
	numCh := buf.Format.NumChannels
	if ch >= numCh {
		return nil, 0, fmt.Errorf("channel %d out of range, %s has %d", ch, path, numCh)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, 0, fmt.Errorf("empty wav data: %s", path)
	}

	out := make([]float64, frames)
	if ch >= 0 {
		for i := range out {
			out[i] = float64(buf.Data[i*numCh+ch])
		}
		return out, rate, nil
	}
	scale := 1 / float64(numCh)
	for i := range out {
		frame := buf.Data[i*numCh : (i+1)*numCh]
		var sum float64
		for _, v := range frame {
			sum += float64(v)
		}
		out[i] = sum * scale
	}
	return out, rate, nil
}

// Resample converts in from fromRate to toRate. Equal rates return in as is.
func Resample(in []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", fromRate, toRate)
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// WriteMono writes samples as a 16-bit mono WAV file, creating parent
// directories as needed.
func WriteMono(path string, samples []float64, sampleRate int) error {
	data := make([]float32, len(samples))
	for i, v := range samples {
		data[i] = float32(v)
	}
	return WriteInterleaved(path, data, sampleRate, 1)
}

// WriteInterleaved writes interleaved float samples as a 16-bit WAV file.
func WriteInterleaved(path string, samples []float32, sampleRate, channels int) error {
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
		return err
	}
	return enc.Close()
}

// Normalize scales samples in place so the largest magnitude equals peak and
// returns the applied gain. Silent input is left untouched.
func Normalize(samples []float64, peak float64) float64 {
	var maxAbs float64
	for _, v := range samples {
		if v < 0 {
			v = -v
		}
		if v > maxAbs {
			maxAbs = v
		}
	}
	if maxAbs == 0 {
		return 1
	}
	g := peak / maxAbs
	for i := range samples {
		samples[i] *= g
	}
	return g
}
