package dubbing

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Track is a mono PCM buffer in the range [-1, 1] before encoding.
type Track struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	if t == nil || t.SampleRate <= 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// Peak returns the largest absolute sample value.
func (t *Track) Peak() float64 {
	var peak float64
	for _, s := range t.Samples {
		peak = math.Max(peak, math.Abs(s))
	}
	return peak
}

// NonSilent reports whether any sample in [from, to) seconds is non-zero.
func (t *Track) NonSilent(from, to float64) bool {
	lo := max(int(from*float64(t.SampleRate)), 0)
	hi := min(int(to*float64(t.SampleRate)), len(t.Samples))
	for i := lo; i < hi; i++ {
		if t.Samples[i] != 0 {
			return true
		}
	}
	return false
}

// WriteWAV encodes the track as 16-bit mono PCM. Samples outside [-1, 1]
// are clamped by the encoder.
func (t *Track) WriteWAV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure track dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create track: %w", err)
	}
	format := beep.Format{SampleRate: beep.SampleRate(t.SampleRate), NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, &trackStreamer{samples: t.Samples}, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode track: %w", err)
	}
	return f.Close()
}

type trackStreamer struct {
	samples []float64
	pos     int
}

func (s *trackStreamer) Stream(buf [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copy2(buf, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *trackStreamer) Err() error { return nil }

func copy2(dst [][2]float64, src []float64) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i][0], dst[i][1] = src[i], src[i]
	}
	return n
}

// decodeClip reads a WAV file as mono samples at sampleRate.
func decodeClip(path string, sampleRate int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	var source beep.Streamer = streamer
	target := beep.SampleRate(sampleRate)
	if format.SampleRate != target {
		source = beep.Resample(4, format.SampleRate, target, streamer)
	}

	samples := make([]float64, 0, streamer.Len())
	buf := make([][2]float64, 1024)
	for {
		n, ok := source.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	if err := source.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return samples, nil
}
