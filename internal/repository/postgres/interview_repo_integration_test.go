//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harsh-BH/intervue/internal/domain"
)

func newIntegrationRepo(t *testing.T) *pgInterviewRepo {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &pgInterviewRepo{pool: pool}
}

func TestIntegration_SaveAndGet(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	id := "INTV-" + uuid.NewString()[:8]

	if err := repo.Save(ctx, id, func(rec *domain.Interview) error {
		rec.ResetForProcessing("CAND-itest")
		return nil
	}); err != nil {
		t.Fatalf("save processing: %v", err)
	}

	out := domain.Completed(
		&domain.Report{VerbalScore: 0.7, Confidence: 0.8, FinalScore: 0.7, Summary: "ok", Language: "en"},
		&domain.Transcript{Text: "hello", Segments: []domain.Segment{{Text: "hello"}}},
		&domain.TextScores{Fluency: 0.7, Relevance: 0.7, Overall: 0.7},
	)
	for i := 0; i < 2; i++ {
		if err := repo.Save(ctx, id, func(rec *domain.Interview) error {
			rec.Apply("CAND-itest", out)
			return nil
		}); err != nil {
			t.Fatalf("save terminal: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.Transcript == nil || got.Scores == nil {
		t.Errorf("unexpected record %+v", got)
	}
}

func TestIntegration_MutateErrorRollsBack(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	id := "INTV-" + uuid.NewString()[:8]

	boom := errors.New("boom")
	err := repo.Save(ctx, id, func(rec *domain.Interview) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error, got %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, domain.ErrInterviewNotFound) {
		t.Errorf("expected nothing persisted, got %v", err)
	}
}
