// Package speech wraps the remote speech-to-text engine.
package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pemistahl/lingua-go"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/openaiapi"
)

// TranscriptionAPI is the subset of the OpenAI client used for STT.
type TranscriptionAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperClient transcribes cleaned audio through a Whisper-compatible endpoint.
type WhisperClient struct {
	api        TranscriptionAPI
	model      string
	maxElapsed time.Duration
	detector   lingua.LanguageDetector
	logger     *zap.Logger
}

// NewWhisperClient creates a transcriber. maxElapsed bounds the total retry time.
func NewWhisperClient(api TranscriptionAPI, model string, maxElapsed time.Duration, logger *zap.Logger) *WhisperClient {
	return &WhisperClient{
		api:        api,
		model:      model,
		maxElapsed: maxElapsed,
		detector:   lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
		logger:     logger,
	}
}

// Transcribe returns the transcript text, timed segments and the detected language.
// The engine reports no top-level confidence; it is derived later from segments.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (*domain.STTResult, error) {
	req := openai.AudioRequest{
		Model:    c.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	var resp openai.AudioResponse
	err := openaiapi.Retry(ctx, c.maxElapsed, func() error {
		var err error
		resp, err = c.api.CreateTranscription(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", audioPath, err)
	}

	res := &domain.STTResult{
		Text:     strings.TrimSpace(resp.Text),
		Segments: make([]domain.Segment, 0, len(resp.Segments)),
		Language: c.detectLanguage(resp.Text),
	}
	for _, s := range resp.Segments {
		lp := s.AvgLogprob
		res.Segments = append(res.Segments, domain.Segment{
			ID:         s.ID,
			Start:      s.Start,
			End:        s.End,
			Text:       strings.TrimSpace(s.Text),
			AvgLogprob: &lp,
		})
	}

	c.logger.Debug("Transcription finished",
		zap.String("audio", audioPath),
		zap.Int("segments", len(res.Segments)),
		zap.String("language", res.Language),
	)
	return res, nil
}

func (c *WhisperClient) detectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return domain.DefaultLanguage
	}
	lang, ok := c.detector.DetectLanguageOf(text)
	if !ok {
		return domain.DefaultLanguage
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
