// Package resultstore reconciles the in-process result cache with the durable interview store.
package resultstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/metrics"
	"github.com/Harsh-BH/intervue/internal/repository"
)

// ResultStore is the only writer of interview state. The durable store is authoritative;
// the cache is advisory and may lag it.
type ResultStore struct {
	repo   repository.InterviewRepository
	cache  repository.ResultCache
	logger *zap.Logger
}

// New creates a ResultStore.
func New(repo repository.InterviewRepository, cache repository.ResultCache, logger *zap.Logger) *ResultStore {
	return &ResultStore{repo: repo, cache: cache, logger: logger}
}

// WriteProcessing durably records a fresh processing job, clearing any previous outcome,
// then mirrors it into the cache. The cache is untouched if the durable write fails.
func (s *ResultStore) WriteProcessing(ctx context.Context, id, candidateID string) error {
	var projection *domain.InterviewResult
	err := s.repo.Save(ctx, id, func(rec *domain.Interview) error {
		rec.ResetForProcessing(candidateID)
		projection = rec.Result()
		return nil
	})
	if err != nil {
		return fmt.Errorf("write processing %s: %w", id, err)
	}
	s.cache.Put(projection)
	return nil
}

// WriteTerminal records a completed or failed outcome. The cache always reflects the
// outcome, even when the durable write fails; that divergence is logged and counted.
func (s *ResultStore) WriteTerminal(ctx context.Context, id, candidateID string, out domain.TerminalOutcome) error {
	if !out.Status.IsTerminal() {
		return fmt.Errorf("write terminal %s: status %q is not terminal", id, out.Status)
	}

	var projection *domain.InterviewResult
	err := s.repo.Save(ctx, id, func(rec *domain.Interview) error {
		rec.Apply(candidateID, out)
		projection = rec.Result()
		return nil
	})
	if err != nil {
		fallback := &domain.Interview{ID: id, Language: domain.DefaultLanguage}
		fallback.Apply(candidateID, out)
		s.cache.Put(fallback.Result())

		metrics.StoreDivergence.Inc()
		s.logger.Error("Durable write failed; cache diverged from store",
			zap.String("interview_id", id),
			zap.String("status", string(out.Status)),
			zap.Error(err),
		)
		return fmt.Errorf("write terminal %s: %w", id, err)
	}

	s.cache.Put(projection)
	return nil
}

// Read returns the freshest known projection. Terminal cache entries are served directly;
// processing or missing entries are refreshed from the durable store.
func (s *ResultStore) Read(ctx context.Context, id string) (*domain.InterviewResult, error) {
	cached, hit := s.cache.Get(id)
	if hit && cached.Status.IsTerminal() {
		return cached, nil
	}

	rec, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return s.cache.Refresh(rec.Result()), nil
	case errors.Is(err, domain.ErrInterviewNotFound):
		if hit {
			return cached, nil
		}
		return nil, domain.ErrInterviewNotFound
	default:
		if hit {
			s.logger.Warn("Durable read failed, serving cached projection",
				zap.String("interview_id", id),
				zap.Error(err),
			)
			return cached, nil
		}
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
}
