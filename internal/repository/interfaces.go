package repository

import (
	"context"

	"github.com/Harsh-BH/intervue/internal/audio"
	"github.com/Harsh-BH/intervue/internal/domain"
)

// InterviewRepository is the durable, authoritative interview store.
type InterviewRepository interface {
	// Save runs mutate against the current record (or a fresh one with the given id)
	// inside one transaction. Any error from mutate or the store rolls the whole call back.
	Save(ctx context.Context, id string, mutate func(*domain.Interview) error) error

	// GetByID returns the record with its transcript and scores.
	// Returns domain.ErrInterviewNotFound if no record exists.
	GetByID(ctx context.Context, id string) (*domain.Interview, error)
}

// ResultCache is the advisory in-process projection cache.
type ResultCache interface {
	Get(id string) (*domain.InterviewResult, bool)
	Put(result *domain.InterviewResult)
	// Refresh stores a projection read back from the durable store, unless it would
	// replace a terminal entry with a processing one. It returns the entry now held.
	Refresh(result *domain.InterviewResult) *domain.InterviewResult
}

// IdempotencyStore defines the interface for distributed deduplication locks.
type IdempotencyStore interface {
	// AcquireLock returns true if this is the first delivery of the interview.
	AcquireLock(ctx context.Context, interviewID string) (bool, error)

	// ReleaseLock sets a TTL on the lock for eventual cleanup.
	ReleaseLock(ctx context.Context, interviewID string) error
}

// Dispatcher hands an accepted interview to the processing side without blocking on it.
type Dispatcher interface {
	Dispatch(ctx context.Context, task *domain.InterviewTask) error
}

// AudioExtractor demuxes the audio track of a staged video.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string) (string, error)
}

// AudioCleaner normalizes a raw track for transcription.
type AudioCleaner interface {
	Clean(ctx context.Context, rawPath string) (*audio.CleanedAudio, error)
}

// Transcriber is the speech-to-text engine.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*domain.STTResult, error)
}

// TextScorer rates a candidate transcript against a reference answer.
type TextScorer interface {
	Score(ctx context.Context, candidate, reference string) (*domain.TextScores, error)
}

// Summarizer produces a short transcript summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// VisionAnalyzer produces the optional non-verbal signal for a video.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, videoPath string) (*domain.VisionSignal, error)
}
