package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/repository"
)

//go:embed schema.sql
var schema string

// Ensure pgInterviewRepo implements repository.InterviewRepository.
var _ repository.InterviewRepository = (*pgInterviewRepo)(nil)

type pgInterviewRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresInterviewRepository creates a new PostgreSQL-backed interview repository.
func NewPostgresInterviewRepository(pool *pgxpool.Pool) repository.InterviewRepository {
	return &pgInterviewRepo{pool: pool}
}

// Migrate creates the interview tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectInterview = `
	SELECT i.id, i.candidate_id, i.language, i.status,
	       i.verbal_score, i.non_verbal_score, i.cheating_score, i.final_score, i.confidence,
	       i.summary, i.error_message, i.created_at, i.updated_at,
	       t.text, t.segments,
	       s.fluency, s.relevance, s.overall
	FROM interviews i
	LEFT JOIN transcripts t ON t.interview_id = i.id
	LEFT JOIN nlp_scores s ON s.interview_id = i.id
	WHERE i.id = $1`

func (r *pgInterviewRepo) GetByID(ctx context.Context, id string) (*domain.Interview, error) {
	rec, err := scanInterview(ctx, r.pool, selectInterview, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get interview by id: %w", err)
	}
	return rec, nil
}

// Save locks the interview row, applies mutate and upserts the interview with its
// transcript and score rows in one transaction.
func (r *pgInterviewRepo) Save(ctx context.Context, id string, mutate func(*domain.Interview) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	now := time.Now().UTC()
	rec, err := scanInterview(ctx, tx, selectInterview+" FOR UPDATE OF i", id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		rec = &domain.Interview{ID: id, Language: domain.DefaultLanguage, CreatedAt: now}
	case err != nil:
		return fmt.Errorf("postgres: lock interview: %w", err)
	}

	if err := mutate(rec); err != nil {
		return err
	}
	rec.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO interviews (id, candidate_id, language, status,
		                        verbal_score, non_verbal_score, cheating_score, final_score, confidence,
		                        summary, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
		    candidate_id = EXCLUDED.candidate_id,
		    language = EXCLUDED.language,
		    status = EXCLUDED.status,
		    verbal_score = EXCLUDED.verbal_score,
		    non_verbal_score = EXCLUDED.non_verbal_score,
		    cheating_score = EXCLUDED.cheating_score,
		    final_score = EXCLUDED.final_score,
		    confidence = EXCLUDED.confidence,
		    summary = EXCLUDED.summary,
		    error_message = EXCLUDED.error_message,
		    updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.CandidateID, rec.Language, rec.Status,
		rec.VerbalScore, rec.NonVerbalScore, rec.CheatingScore, rec.FinalScore, rec.Confidence,
		rec.Summary, rec.ErrorMessage, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert interview: %w", err)
	}

	if err := saveTranscript(ctx, tx, rec); err != nil {
		return err
	}
	if err := saveScores(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func saveTranscript(ctx context.Context, tx pgx.Tx, rec *domain.Interview) error {
	if rec.Transcript == nil {
		if _, err := tx.Exec(ctx, `DELETE FROM transcripts WHERE interview_id = $1`, rec.ID); err != nil {
			return fmt.Errorf("postgres: clear transcript: %w", err)
		}
		return nil
	}

	segments := rec.Transcript.Segments
	if segments == nil {
		segments = []domain.Segment{}
	}
	blob, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("postgres: encode segments: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transcripts (interview_id, text, segments)
		VALUES ($1, $2, $3)
		ON CONFLICT (interview_id) DO UPDATE SET text = EXCLUDED.text, segments = EXCLUDED.segments`,
		rec.ID, rec.Transcript.Text, blob,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert transcript: %w", err)
	}
	return nil
}

func saveScores(ctx context.Context, tx pgx.Tx, rec *domain.Interview) error {
	if rec.Scores == nil {
		if _, err := tx.Exec(ctx, `DELETE FROM nlp_scores WHERE interview_id = $1`, rec.ID); err != nil {
			return fmt.Errorf("postgres: clear scores: %w", err)
		}
		return nil
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO nlp_scores (interview_id, fluency, relevance, overall)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (interview_id) DO UPDATE SET
		    fluency = EXCLUDED.fluency, relevance = EXCLUDED.relevance, overall = EXCLUDED.overall`,
		rec.ID, rec.Scores.Fluency, rec.Scores.Relevance, rec.Scores.Overall,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert scores: %w", err)
	}
	return nil
}

func scanInterview(ctx context.Context, q querier, query, id string) (*domain.Interview, error) {
	rec := &domain.Interview{}
	var (
		transcriptText              *string
		segments                    []byte
		fluency, relevance, overall *float64
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.CandidateID, &rec.Language, &rec.Status,
		&rec.VerbalScore, &rec.NonVerbalScore, &rec.CheatingScore, &rec.FinalScore, &rec.Confidence,
		&rec.Summary, &rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt,
		&transcriptText, &segments,
		&fluency, &relevance, &overall,
	)
	if err != nil {
		return nil, err
	}

	if transcriptText != nil {
		rec.Transcript = &domain.Transcript{Text: *transcriptText}
		if len(segments) > 0 {
			if err := json.Unmarshal(segments, &rec.Transcript.Segments); err != nil {
				return nil, fmt.Errorf("decode segments: %w", err)
			}
		}
	}
	if fluency != nil && relevance != nil && overall != nil {
		rec.Scores = &domain.TextScores{Fluency: *fluency, Relevance: *relevance, Overall: *overall}
	}
	return rec, nil
}
