package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/metrics"
)

const (
	butterworthQ = 0.70710678
	rmsEpsilon   = 1e-8
	rmsFloor     = 1e-4
)

// PortablePreprocessor cleans WAV input in-process: biquad band limiting,
// RMS normalization with clamping, and linear resampling.
type PortablePreprocessor struct {
	logger *zap.Logger
}

// NewPortablePreprocessor creates the in-process preprocessor.
func NewPortablePreprocessor(logger *zap.Logger) *PortablePreprocessor {
	return &PortablePreprocessor{logger: logger}
}

func (p *PortablePreprocessor) Name() string { return "portable" }

// Clean reads rawPath, filters and normalizes it, and writes a 16-bit 16 kHz mono file.
func (p *PortablePreprocessor) Clean(ctx context.Context, rawPath string) (*CleanedAudio, error) {
	samples, rate, err := readMono(rawPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples = Highpass(samples, rate, highpassHz)
	samples = Lowpass(samples, rate, lowpassHz)
	NormalizeRMS(samples)
	if rate != TargetSampleRate {
		samples = Resample(samples, rate, TargetSampleRate)
	}

	dir, err := os.MkdirTemp("", tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	out := &CleanedAudio{Path: filepath.Join(dir, cleanedName), Dir: dir}

	if err := writeMono16(out.Path, samples, TargetSampleRate); err != nil {
		_ = out.Cleanup()
		return nil, err
	}

	metrics.PreprocessPath.WithLabelValues(p.Name()).Inc()
	p.logger.Debug("Audio cleaned in-process",
		zap.String("raw_audio", rawPath),
		zap.Int("source_rate", rate),
		zap.Int("samples", len(samples)),
	)
	return out, nil
}

// readMono decodes a PCM WAV file into [-1,1] float samples averaged across channels.
func readMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open raw audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("raw audio %s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode raw audio: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("raw audio %s has no usable format", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := math.Pow(2, float64(depth-1))

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = sum / float64(channels) / scale
	}
	return out, buf.Format.SampleRate, nil
}

func writeMono16(path string, samples []float64, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cleaned audio: %w", err)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(s * math.MaxInt16))
	}

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode cleaned audio: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize cleaned audio: %w", err)
	}
	return f.Close()
}

// biquad is a Direct Form I second-order section with normalized coefficients.
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

func newBiquad(b0, b1, b2, a0, a1, a2 float64) biquad {
	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func (q biquad) apply(in []float64) []float64 {
	out := make([]float64, len(in))
	var x1, x2, y1, y2 float64
	for i, x := range in {
		y := q.b0*x + q.b1*x1 + q.b2*x2 - q.a1*y1 - q.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// clampCutoff keeps a cutoff strictly below Nyquist.
func clampCutoff(cutoff float64, rate int) float64 {
	nyquist := float64(rate) / 2
	if cutoff >= nyquist {
		return nyquist * 0.99
	}
	return cutoff
}

// Highpass applies a second-order Butterworth high-pass filter.
func Highpass(samples []float64, rate int, cutoff float64) []float64 {
	w0 := 2 * math.Pi * clampCutoff(cutoff, rate) / float64(rate)
	cos, alpha := math.Cos(w0), math.Sin(w0)/(2*butterworthQ)
	return newBiquad(
		(1+cos)/2, -(1 + cos), (1+cos)/2,
		1+alpha, -2*cos, 1-alpha,
	).apply(samples)
}

// Lowpass applies a second-order Butterworth low-pass filter.
func Lowpass(samples []float64, rate int, cutoff float64) []float64 {
	w0 := 2 * math.Pi * clampCutoff(cutoff, rate) / float64(rate)
	cos, alpha := math.Cos(w0), math.Sin(w0)/(2*butterworthQ)
	return newBiquad(
		(1-cos)/2, 1-cos, (1-cos)/2,
		1+alpha, -2*cos, 1-alpha,
	).apply(samples)
}

// NormalizeRMS divides samples by their RMS amplitude (floored) and clamps to [-1,1].
func NormalizeRMS(samples []float64) {
	if len(samples) == 0 {
		return
	}
	var sq float64
	for _, s := range samples {
		sq += s * s
	}
	rms := math.Sqrt(sq/float64(len(samples)) + rmsEpsilon)
	div := math.Max(rms, rmsFloor)
	for i, s := range samples {
		samples[i] = math.Max(-1, math.Min(1, s/div))
	}
}

// Resample converts between sample rates by linear interpolation.
func Resample(samples []float64, from, to int) []float64 {
	if from == to || len(samples) == 0 {
		return samples
	}
	n := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}
