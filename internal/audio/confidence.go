package audio

import (
	"math"

	"github.com/Harsh-BH/intervue/internal/domain"
)

const (
	// missingLogprob stands in for segments the engine did not score.
	missingLogprob = -10.0
	minLogprob     = -5.0
)

// DeriveConfidence averages exp(clamp(avg_logprob, -5, 0)) across segments.
// An empty segment list yields 0.
func DeriveConfidence(segments []domain.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}

	var sum float64
	for _, seg := range segments {
		lp := missingLogprob
		if seg.AvgLogprob != nil {
			lp = *seg.AvgLogprob
		}
		lp = math.Max(minLogprob, math.Min(0, lp))
		sum += math.Exp(lp)
	}
	return sum / float64(len(segments))
}
