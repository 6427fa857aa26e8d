// Package media demuxes audio tracks out of uploaded interview videos.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
)

// FFmpegExtractor pulls a 16 kHz mono PCM track out of a video container.
type FFmpegExtractor struct {
	ffmpegPath string
	outputDir  string
	timeout    time.Duration
	runner     CommandRunner
	stat       func(name string) (os.FileInfo, error)
	remove     func(name string) error
	mkdirAll   func(path string, perm os.FileMode) error
	logger     *zap.Logger
}

// NewFFmpegExtractor creates an extractor writing into outputDir.
func NewFFmpegExtractor(ffmpegPath, outputDir string, timeout time.Duration, logger *zap.Logger) *FFmpegExtractor {
	return NewFFmpegExtractorWithRunner(ffmpegPath, outputDir, timeout, ExecRunner{}, logger)
}

// NewFFmpegExtractorWithRunner is NewFFmpegExtractor with an injected process runner.
func NewFFmpegExtractorWithRunner(ffmpegPath, outputDir string, timeout time.Duration, runner CommandRunner, logger *zap.Logger) *FFmpegExtractor {
	return &FFmpegExtractor{
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		timeout:    timeout,
		runner:     runner,
		stat:       os.Stat,
		remove:     os.Remove,
		mkdirAll:   os.MkdirAll,
		logger:     logger,
	}
}

// Extract writes the audio track of videoPath to a new WAV file and returns its path.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath string) (string, error) {
	if _, err := e.stat(videoPath); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, videoPath)
	}
	if err := e.mkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	outPath := filepath.Join(e.outputDir, outputName(videoPath))
	args := []string{
		"-nostdin", "-y",
		"-i", videoPath,
		"-f", "wav",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		outPath,
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	res, err := e.runner.Run(runCtx, e.ffmpegPath, args...)
	if err != nil {
		e.discard(outPath)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", domain.ErrExtractionTimeout, e.timeout)
		}
		e.logger.Warn("ffmpeg exited with error",
			zap.String("video", videoPath),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", lastLine(res.Stderr)),
		)
		return "", fmt.Errorf("%w: %s", domain.ErrExtractionFailed, lastLine(res.Stderr))
	}

	info, err := e.stat(outPath)
	if err != nil || info.Size() == 0 {
		e.discard(outPath)
		return "", domain.ErrEmptyAudioTrack
	}

	e.logger.Debug("Audio extracted",
		zap.String("video", videoPath),
		zap.String("audio", outPath),
		zap.Int64("bytes", info.Size()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outPath, nil
}

func (e *FFmpegExtractor) discard(path string) {
	if err := e.remove(path); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("Failed to remove partial audio", zap.String("path", path), zap.Error(err))
	}
}

func outputName(videoPath string) string {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%s_%s.wav", stem, hex.EncodeToString(suffix))
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
