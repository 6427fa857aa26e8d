package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Harsh-BH/intervue/internal/audio"
	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/repository"
)

// ---- InterviewRepository mock ----

var _ repository.InterviewRepository = (*InterviewRepository)(nil)

// InterviewRepository is an in-memory test double for repository.InterviewRepository.
// Save applies mutate to a copy and keeps it only if mutate succeeds, like a rolled-back transaction.
type InterviewRepository struct {
	mu      sync.Mutex
	records map[string]*domain.Interview

	// SaveFn, if set, runs before the mutation; a non-nil error aborts the save.
	SaveFn    func(ctx context.Context, id string) error
	GetByIDFn func(ctx context.Context, id string) (*domain.Interview, error)

	SaveCalls []string
	GetCalls  []string
}

func (m *InterviewRepository) Save(ctx context.Context, id string, mutate func(*domain.Interview) error) error {
	m.mu.Lock()
	m.SaveCalls = append(m.SaveCalls, id)
	m.mu.Unlock()

	if m.SaveFn != nil {
		if err := m.SaveFn(ctx, id); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]*domain.Interview)
	}

	now := time.Now().UTC()
	rec := &domain.Interview{ID: id, Language: domain.DefaultLanguage, CreatedAt: now}
	if existing, ok := m.records[id]; ok {
		rec = existing.Clone()
	}
	if err := mutate(rec); err != nil {
		return err
	}
	rec.UpdatedAt = now
	m.records[id] = rec
	return nil
}

func (m *InterviewRepository) GetByID(ctx context.Context, id string) (*domain.Interview, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, id)
	m.mu.Unlock()

	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrInterviewNotFound
	}
	return rec.Clone(), nil
}

// Seed stores a record directly, bypassing Save.
func (m *InterviewRepository) Seed(rec *domain.Interview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]*domain.Interview)
	}
	m.records[rec.ID] = rec.Clone()
}

// Record returns the stored record, if any.
func (m *InterviewRepository) Record(id string) (*domain.Interview, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// GetCallCount returns how many times GetByID was called.
func (m *InterviewRepository) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GetCalls)
}

// ---- IdempotencyStore mock ----

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore is a test double for repository.IdempotencyStore.
type IdempotencyStore struct {
	mu sync.Mutex

	AcquireLockFn func(ctx context.Context, interviewID string) (bool, error)
	ReleaseLockFn func(ctx context.Context, interviewID string) error

	AcquireCalls []string
	ReleaseCalls []string
}

func (m *IdempotencyStore) AcquireLock(ctx context.Context, interviewID string) (bool, error) {
	m.mu.Lock()
	m.AcquireCalls = append(m.AcquireCalls, interviewID)
	m.mu.Unlock()
	if m.AcquireLockFn != nil {
		return m.AcquireLockFn(ctx, interviewID)
	}
	return true, nil // default: lock acquired
}

func (m *IdempotencyStore) ReleaseLock(ctx context.Context, interviewID string) error {
	m.mu.Lock()
	m.ReleaseCalls = append(m.ReleaseCalls, interviewID)
	m.mu.Unlock()
	if m.ReleaseLockFn != nil {
		return m.ReleaseLockFn(ctx, interviewID)
	}
	return nil
}

// ---- Dispatcher mock ----

var _ repository.Dispatcher = (*Dispatcher)(nil)

// Dispatcher records dispatched tasks.
type Dispatcher struct {
	mu sync.Mutex

	DispatchFn func(ctx context.Context, task *domain.InterviewTask) error

	Tasks []*domain.InterviewTask
}

func (m *Dispatcher) Dispatch(ctx context.Context, task *domain.InterviewTask) error {
	m.mu.Lock()
	m.Tasks = append(m.Tasks, task)
	m.mu.Unlock()
	if m.DispatchFn != nil {
		return m.DispatchFn(ctx, task)
	}
	return nil
}

// ---- Pipeline stage mocks ----

var (
	_ repository.AudioExtractor = (*Extractor)(nil)
	_ repository.AudioCleaner   = (*Cleaner)(nil)
	_ repository.Transcriber    = (*Transcriber)(nil)
	_ repository.TextScorer     = (*Scorer)(nil)
	_ repository.Summarizer     = (*Summarizer)(nil)
	_ repository.VisionAnalyzer = (*Vision)(nil)
)

// Extractor is a test double for repository.AudioExtractor.
type Extractor struct {
	mu sync.Mutex

	ExtractFn func(ctx context.Context, videoPath string) (string, error)

	Calls []string
}

func (m *Extractor) Extract(ctx context.Context, videoPath string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, videoPath)
	m.mu.Unlock()
	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, videoPath)
	}
	return videoPath + ".wav", nil
}

// Cleaner is a test double for repository.AudioCleaner.
type Cleaner struct {
	mu sync.Mutex

	CleanFn func(ctx context.Context, rawPath string) (*audio.CleanedAudio, error)

	Calls []string
}

func (m *Cleaner) Clean(ctx context.Context, rawPath string) (*audio.CleanedAudio, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, rawPath)
	m.mu.Unlock()
	if m.CleanFn != nil {
		return m.CleanFn(ctx, rawPath)
	}
	return &audio.CleanedAudio{Path: rawPath}, nil
}

// Transcriber is a test double for repository.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	TranscribeFn func(ctx context.Context, audioPath string) (*domain.STTResult, error)

	Calls []string
}

func (m *Transcriber) Transcribe(ctx context.Context, audioPath string) (*domain.STTResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, audioPath)
	m.mu.Unlock()
	if m.TranscribeFn != nil {
		return m.TranscribeFn(ctx, audioPath)
	}
	conf := 0.9
	return &domain.STTResult{
		Text:       "I have five years of experience building Go services.",
		Segments:   []domain.Segment{{ID: 0, End: 3.2, Text: "I have five years of experience building Go services."}},
		Confidence: &conf,
		Language:   "en",
	}, nil
}

// Scorer is a test double for repository.TextScorer.
type Scorer struct {
	mu sync.Mutex

	ScoreFn func(ctx context.Context, candidate, reference string) (*domain.TextScores, error)

	References []string
}

func (m *Scorer) Score(ctx context.Context, candidate, reference string) (*domain.TextScores, error) {
	m.mu.Lock()
	m.References = append(m.References, reference)
	m.mu.Unlock()
	if m.ScoreFn != nil {
		return m.ScoreFn(ctx, candidate, reference)
	}
	return &domain.TextScores{Fluency: 0.8, Relevance: 0.7, Overall: 0.74}, nil
}

// Summarizer is a test double for repository.Summarizer.
type Summarizer struct {
	SummarizeFn func(ctx context.Context, transcript string) (string, error)
}

func (m *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, transcript)
	}
	return "The candidate described their Go experience.", nil
}

// Vision is a test double for repository.VisionAnalyzer.
type Vision struct {
	AnalyzeFn func(ctx context.Context, videoPath string) (*domain.VisionSignal, error)
}

func (m *Vision) Analyze(ctx context.Context, videoPath string) (*domain.VisionSignal, error) {
	if m.AnalyzeFn != nil {
		return m.AnalyzeFn(ctx, videoPath)
	}
	return &domain.VisionSignal{CheatingScore: 0.1, EyeContactRatio: 0.8}, nil
}
