// Package report combines stage outputs into the final interview report.
package report

import (
	"fmt"
	"math"

	"github.com/Harsh-BH/intervue/internal/audio"
	"github.com/Harsh-BH/intervue/internal/domain"
)

const (
	// VerbalWeight and NonVerbalWeight are applied when a vision signal is present.
	VerbalWeight    = 0.65
	NonVerbalWeight = 0.35
)

// WeightedAverage returns Σ(v·w)/Σ(w). A zero weight sum yields 0.
func WeightedAverage(values, weights []float64) (float64, error) {
	if len(values) == 0 || len(values) != len(weights) {
		return 0, fmt.Errorf("weighted average of %d values with %d weights: %w",
			len(values), len(weights), domain.ErrInvalidWeights)
	}

	var sum, total float64
	for i, v := range values {
		sum += v * weights[i]
		total += weights[i]
	}
	if total == 0 {
		return 0, nil
	}
	return sum / total, nil
}

// Aggregate builds the report for a completed interview. vision is optional;
// without it the final score is the verbal score.
func Aggregate(stt *domain.STTResult, scoring *domain.ScoringResult, vision *domain.VisionSignal) (*domain.Report, error) {
	if stt == nil || scoring == nil {
		return nil, fmt.Errorf("aggregate: stt and scoring results are required")
	}

	verbal := scoring.Scores.Overall

	confidence := audio.DeriveConfidence(stt.Segments)
	if stt.Confidence != nil && *stt.Confidence != 0 {
		confidence = *stt.Confidence
	}

	rep := &domain.Report{
		Summary:    scoring.Summary,
		Transcript: stt.Text,
		Language:   stt.Language,
	}

	final := verbal
	if vision != nil {
		nonVerbal := 1 - vision.CheatingScore
		var err error
		final, err = WeightedAverage(
			[]float64{verbal, nonVerbal},
			[]float64{VerbalWeight, NonVerbalWeight},
		)
		if err != nil {
			return nil, err
		}
		nv := Round3(nonVerbal)
		cheat := Round3(vision.CheatingScore)
		rep.NonVerbalScore = &nv
		rep.CheatingScore = &cheat
	}

	rep.VerbalScore = Round3(verbal)
	rep.Confidence = Round3(confidence)
	rep.FinalScore = Round3(final)
	return rep, nil
}

// Round3 rounds to three decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
