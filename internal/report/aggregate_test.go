package report_test

import (
	"errors"
	"math"
	"testing"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/report"
)

func ptr(v float64) *float64 { return &v }

func TestWeightedAverage(t *testing.T) {
	got, err := report.WeightedAverage([]float64{0.9, 0.7}, []float64{0.65, 0.35})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.83) > 1e-9 {
		t.Errorf("expected 0.83, got %v", got)
	}
}

func TestWeightedAverage_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		weights []float64
	}{
		{"empty", nil, nil},
		{"mismatched", []float64{0.5, 0.5}, []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := report.WeightedAverage(tt.values, tt.weights)
			if !errors.Is(err, domain.ErrInvalidWeights) {
				t.Errorf("expected ErrInvalidWeights, got %v", err)
			}
		})
	}
}

func TestWeightedAverage_ZeroWeights(t *testing.T) {
	got, err := report.WeightedAverage([]float64{0.4}, []float64{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestAggregate_WithVision(t *testing.T) {
	stt := &domain.STTResult{Text: "hello there", Confidence: ptr(0.8)}
	scoring := &domain.ScoringResult{
		Scores:  domain.TextScores{Fluency: 0.9, Relevance: 0.9, Overall: 0.9},
		Summary: "Candidate greeted.",
	}

	rep, err := report.Aggregate(stt, scoring, &domain.VisionSignal{CheatingScore: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.FinalScore != 0.83 {
		t.Errorf("expected final 0.830, got %v", rep.FinalScore)
	}
	if rep.NonVerbalScore == nil || *rep.NonVerbalScore != 0.7 {
		t.Errorf("expected non-verbal 0.7, got %v", rep.NonVerbalScore)
	}
	if rep.Summary != "Candidate greeted." {
		t.Errorf("summary not passed through: %q", rep.Summary)
	}
	if rep.Confidence != 0.8 {
		t.Errorf("expected engine confidence 0.8, got %v", rep.Confidence)
	}
}

func TestAggregate_TextOnly(t *testing.T) {
	stt := &domain.STTResult{
		Text: "answer",
		Segments: []domain.Segment{
			{AvgLogprob: ptr(0)},
			{AvgLogprob: ptr(-1)},
			{AvgLogprob: ptr(-10)},
		},
	}
	scoring := &domain.ScoringResult{Scores: domain.TextScores{Overall: 0.71234}}

	rep, err := report.Aggregate(stt, scoring, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.FinalScore != rep.VerbalScore {
		t.Errorf("text-only final %v should equal verbal %v", rep.FinalScore, rep.VerbalScore)
	}
	if rep.VerbalScore != 0.712 {
		t.Errorf("expected verbal 0.712, got %v", rep.VerbalScore)
	}
	// Zero engine confidence falls back to the segment-derived value.
	if rep.Confidence != 0.458 {
		t.Errorf("expected derived confidence 0.458, got %v", rep.Confidence)
	}
	if rep.NonVerbalScore != nil {
		t.Error("non-verbal score must be absent without a vision signal")
	}
	if rep.Summary != "" {
		t.Errorf("expected empty summary, got %q", rep.Summary)
	}
}

func TestAggregate_RoundsAfterCombining(t *testing.T) {
	stt := &domain.STTResult{Text: "x", Confidence: ptr(0.5)}
	scoring := &domain.ScoringResult{Scores: domain.TextScores{Overall: 0.70051}}

	// 0.70051·0.65 + 1·0.35 = 0.8053315. Rounding verbal to 0.701 first would give 0.806.
	rep, err := report.Aggregate(stt, scoring, &domain.VisionSignal{CheatingScore: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.FinalScore != 0.805 {
		t.Errorf("expected 0.805, got %v", rep.FinalScore)
	}
	if rep.VerbalScore != 0.701 {
		t.Errorf("expected verbal 0.701, got %v", rep.VerbalScore)
	}
}
