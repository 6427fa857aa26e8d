// Package audio turns raw extracted tracks into clean 16 kHz mono speech audio.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/media"
	"github.com/Harsh-BH/intervue/internal/metrics"
)

const (
	// TargetSampleRate is the rate every cleaned file is written at.
	TargetSampleRate = 16000

	highpassHz = 200.0
	lowpassHz  = 3800.0

	tempPattern = "stt_clean_*"
	cleanedName = "cleaned.wav"
)

// CleanedAudio is a cleaned file inside its own temporary directory.
// The caller owns both and must call Cleanup on every exit path.
type CleanedAudio struct {
	Path string
	Dir  string
}

// Cleanup removes the cleaned file and its temporary directory.
func (c *CleanedAudio) Cleanup() error {
	if c == nil || c.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("remove cleaned audio dir: %w", err)
	}
	c.Dir = ""
	return nil
}

// Preprocessor cleans a raw audio track for transcription.
type Preprocessor interface {
	Clean(ctx context.Context, rawPath string) (*CleanedAudio, error)
	Name() string
}

// NewPreprocessor selects the cleaning strategy once, based on whether SoX is installed.
func NewPreprocessor(soxPath string, logger *zap.Logger) Preprocessor {
	portable := NewPortablePreprocessor(logger)
	if _, err := exec.LookPath(soxPath); err != nil {
		logger.Warn("SoX not available, using portable audio cleaning",
			zap.String("sox_path", soxPath),
		)
		return portable
	}
	logger.Info("Using SoX audio cleaning", zap.String("sox_path", soxPath))
	return NewSoxPreprocessor(soxPath, media.ExecRunner{}, portable, logger)
}

// SoxPreprocessor runs the SoX effects chain and falls back to the portable
// path when SoX fails at runtime.
type SoxPreprocessor struct {
	soxPath  string
	runner   media.CommandRunner
	fallback Preprocessor
	logger   *zap.Logger
}

// NewSoxPreprocessor creates a SoX-backed preprocessor.
func NewSoxPreprocessor(soxPath string, runner media.CommandRunner, fallback Preprocessor, logger *zap.Logger) *SoxPreprocessor {
	return &SoxPreprocessor{
		soxPath:  soxPath,
		runner:   runner,
		fallback: fallback,
		logger:   logger,
	}
}

func (p *SoxPreprocessor) Name() string { return "sox" }

// Clean applies gain normalization, 200 Hz high-pass, 3800 Hz low-pass,
// compansion and a final normalization, resampling to 16 kHz mono.
func (p *SoxPreprocessor) Clean(ctx context.Context, rawPath string) (*CleanedAudio, error) {
	if _, err := os.Stat(rawPath); err != nil {
		return nil, fmt.Errorf("raw audio: %w", err)
	}

	dir, err := os.MkdirTemp("", tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	out := &CleanedAudio{Path: filepath.Join(dir, cleanedName), Dir: dir}

	args := []string{
		rawPath,
		"-r", fmt.Sprint(TargetSampleRate),
		"-c", "1",
		out.Path,
		"gain", "-n",
		"highpass", fmt.Sprint(highpassHz),
		"lowpass", fmt.Sprint(lowpassHz),
		"compand", "0.02,0.20", "6:-70,-60,-20", "-5", "-90", "0.2",
		"norm",
	}

	res, err := p.runner.Run(ctx, p.soxPath, args...)
	if err == nil {
		metrics.PreprocessPath.WithLabelValues(p.Name()).Inc()
		return out, nil
	}

	_ = out.Cleanup()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("sox: %w", errors.Join(err, ctxErr))
	}
	if p.fallback == nil {
		return nil, fmt.Errorf("sox: %w", err)
	}

	p.logger.Warn("SoX failed, falling back to portable cleaning",
		zap.String("raw_audio", rawPath),
		zap.Int("exit_code", res.ExitCode),
		zap.String("stderr", res.Stderr),
		zap.Error(err),
	)
	return p.fallback.Clean(ctx, rawPath)
}
