package evaluation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/repository"
)

// DefaultThreshold is the minimum overall accuracy for a passing run.
const DefaultThreshold = 0.90

// SampleResult is the outcome for one audio file.
type SampleResult struct {
	File       string   `json:"file"`
	Reference  string   `json:"reference"`
	Transcript string   `json:"transcript"`
	Confidence *float64 `json:"confidence"`
	Accuracy   float64  `json:"accuracy"`
	Error      string   `json:"error,omitempty"`
}

// Report summarizes a dataset run.
type Report struct {
	Dataset          string         `json:"dataset"`
	SamplesEvaluated int            `json:"samples_evaluated"`
	OverallAccuracy  float64        `json:"overall_accuracy"`
	MedianAccuracy   float64        `json:"median_accuracy"`
	MinAccuracy      float64        `json:"min_accuracy"`
	MaxAccuracy      float64        `json:"max_accuracy"`
	Details          []SampleResult `json:"details"`
}

// Passed reports whether the overall accuracy meets threshold.
func (r *Report) Passed(threshold float64) bool {
	return r.OverallAccuracy >= threshold
}

// Evaluator runs the production audio path (demux, clean, transcribe) over a dataset.
type Evaluator struct {
	extractor   repository.AudioExtractor
	cleaner     repository.AudioCleaner
	transcriber repository.Transcriber
	logger      *zap.Logger
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(extractor repository.AudioExtractor, cleaner repository.AudioCleaner, transcriber repository.Transcriber, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		extractor:   extractor,
		cleaner:     cleaner,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Run evaluates every sample. A sample that cannot be transcribed counts as fully wrong.
func (e *Evaluator) Run(ctx context.Context, dataset string, samples []Sample) *Report {
	var (
		totalWords, totalErrors int
		scores                  = make([]float64, 0, len(samples))
		details                 = make([]SampleResult, 0, len(samples))
	)

	for _, s := range samples {
		if ctx.Err() != nil {
			break
		}

		ref := Normalize(s.Reference)
		words := max(len(strings.Fields(ref)), 1)
		result := SampleResult{File: filepath.Base(s.AudioPath), Reference: s.Reference}

		text, conf, err := e.transcribe(ctx, s.AudioPath)
		sampleWER := 1.0
		if err != nil {
			e.logger.Warn("Sample transcription failed", zap.String("file", result.File), zap.Error(err))
			result.Error = err.Error()
		} else {
			result.Transcript = text
			result.Confidence = conf
			sampleWER = WER(ref, Normalize(text))
		}

		totalWords += words
		totalErrors += int(math.Round(sampleWER * float64(words)))
		scores = append(scores, 1-sampleWER)
		result.Accuracy = round4(1 - sampleWER)
		details = append(details, result)

		e.logger.Info("Sample evaluated",
			zap.String("file", result.File),
			zap.Float64("accuracy", result.Accuracy),
		)
	}

	report := &Report{
		Dataset:          dataset,
		SamplesEvaluated: len(details),
		OverallAccuracy:  1,
		Details:          details,
	}
	if totalWords > 0 {
		report.OverallAccuracy = round4(1 - float64(totalErrors)/float64(totalWords))
	}
	if len(scores) > 0 {
		sorted := append([]float64(nil), scores...)
		sort.Float64s(sorted)
		report.MedianAccuracy = round4(median(sorted))
		report.MinAccuracy = round4(sorted[0])
		report.MaxAccuracy = round4(sorted[len(sorted)-1])
	}
	return report
}

func (e *Evaluator) transcribe(ctx context.Context, audioPath string) (string, *float64, error) {
	raw, err := e.extractor.Extract(ctx, audioPath)
	if err != nil {
		return "", nil, err
	}
	defer os.Remove(raw)

	cleaned, err := e.cleaner.Clean(ctx, raw)
	if err != nil {
		return "", nil, err
	}
	defer cleaned.Cleanup()

	stt, err := e.transcriber.Transcribe(ctx, cleaned.Path)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(stt.Text), stt.Confidence, nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
