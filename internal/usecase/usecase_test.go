package usecase

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Harsh-BH/intervue/internal/audio"
	"github.com/Harsh-BH/intervue/internal/cache"
	"github.com/Harsh-BH/intervue/internal/dispatch"
	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/pool"
	"github.com/Harsh-BH/intervue/internal/repository/mock"
	"github.com/Harsh-BH/intervue/internal/resultstore"
)

type fixture struct {
	repo        *mock.InterviewRepository
	store       *resultstore.ResultStore
	dispatcher  *mock.Dispatcher
	idempotent  *mock.IdempotencyStore
	extractor   *mock.Extractor
	cleaner     *mock.Cleaner
	transcriber *mock.Transcriber
	scorer      *mock.Scorer
	uploadDir   string
	workDir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &mock.InterviewRepository{}
	f := &fixture{
		repo:        repo,
		store:       resultstore.New(repo, cache.NewMemoryCache(), zap.NewNop()),
		dispatcher:  &mock.Dispatcher{},
		idempotent:  &mock.IdempotencyStore{},
		extractor:   &mock.Extractor{},
		cleaner:     &mock.Cleaner{},
		transcriber: &mock.Transcriber{},
		scorer:      &mock.Scorer{},
		uploadDir:   filepath.Join(t.TempDir(), "uploads"),
		workDir:     t.TempDir(),
	}

	// Stage mocks that leave real files behind so cleanup can be asserted.
	f.extractor.ExtractFn = func(_ context.Context, videoPath string) (string, error) {
		raw := filepath.Join(f.workDir, filepath.Base(videoPath)+".wav")
		return raw, os.WriteFile(raw, []byte("RIFF"), 0o644)
	}
	f.cleaner.CleanFn = func(_ context.Context, rawPath string) (*audio.CleanedAudio, error) {
		dir, err := os.MkdirTemp(f.workDir, "stt_clean_*")
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, "cleaned.wav")
		return &audio.CleanedAudio{Path: path, Dir: dir}, os.WriteFile(path, []byte("RIFF"), 0o644)
	}
	return f
}

func (f *fixture) submitUC() *SubmitInterviewUsecase {
	return NewSubmitInterviewUsecase(f.store, f.dispatcher, f.uploadDir, zap.NewNop())
}

func (f *fixture) processUC(opts ...func(*Pipeline)) *ProcessInterviewUsecase {
	p := Pipeline{
		Extractor:   f.extractor,
		Cleaner:     f.cleaner,
		Transcriber: f.transcriber,
		Scorer:      f.scorer,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return NewProcessInterviewUsecase(f.store, f.idempotent, p, zap.NewNop())
}

// stagedTask writes a fake upload and records it as processing, as Submit would.
func (f *fixture) stagedTask(t *testing.T, id, expected string) *domain.InterviewTask {
	t.Helper()
	if err := os.MkdirAll(f.uploadDir, 0o755); err != nil {
		t.Fatal(err)
	}
	video := filepath.Join(f.uploadDir, id+".mp4")
	if err := os.WriteFile(video, []byte("video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.store.WriteProcessing(context.Background(), id, "CAND-1"); err != nil {
		t.Fatal(err)
	}
	return &domain.InterviewTask{
		InterviewID:    id,
		CandidateID:    "CAND-1",
		VideoPath:      video,
		ExpectedAnswer: expected,
	}
}

func (f *fixture) assertNoArtifacts(t *testing.T, task *domain.InterviewTask) {
	t.Helper()
	if _, err := os.Stat(task.VideoPath); !os.IsNotExist(err) {
		t.Errorf("staged video should be removed, stat err = %v", err)
	}
	entries, err := os.ReadDir(f.workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover audio artifacts, found %d", len(entries))
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ---- SubmitInterviewUsecase tests ----

func TestSubmit_ImmediatelyVisibleAsProcessing(t *testing.T) {
	f := newFixture(t)
	uc := f.submitUC()

	resp, err := uc.Execute(context.Background(), &SubmitRequest{
		Video:          strings.NewReader("fake video"),
		Filename:       "answer.MP4",
		ExpectedAnswer: "goroutines and channels",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(resp.InterviewID, "INTV-") {
		t.Errorf("unexpected interview id %q", resp.InterviewID)
	}
	if resp.Status != domain.StatusProcessing {
		t.Errorf("expected processing, got %s", resp.Status)
	}

	res, err := NewGetResultUsecase(f.store, zap.NewNop()).Execute(context.Background(), resp.InterviewID)
	if err != nil {
		t.Fatalf("read after submit: %v", err)
	}
	if res.Status != domain.StatusProcessing {
		t.Errorf("expected processing on read, got %s", res.Status)
	}
	if !strings.HasPrefix(res.CandidateID, "CAND-") || len(res.CandidateID) != len("CAND-")+6 {
		t.Errorf("expected generated candidate id, got %q", res.CandidateID)
	}

	if len(f.dispatcher.Tasks) != 1 {
		t.Fatalf("expected 1 dispatched task, got %d", len(f.dispatcher.Tasks))
	}
	task := f.dispatcher.Tasks[0]
	if task.ExpectedAnswer != "goroutines and channels" {
		t.Errorf("expected answer not forwarded: %q", task.ExpectedAnswer)
	}
	if filepath.Ext(task.VideoPath) != ".mp4" {
		t.Errorf("expected lowercased extension, got %q", task.VideoPath)
	}
	data, err := os.ReadFile(task.VideoPath)
	if err != nil || string(data) != "fake video" {
		t.Errorf("staged upload mismatch: %q, %v", data, err)
	}
}

func TestSubmit_KeepsProvidedCandidateID(t *testing.T) {
	f := newFixture(t)

	resp, err := f.submitUC().Execute(context.Background(), &SubmitRequest{
		Video:       strings.NewReader("v"),
		CandidateID: "CAND-abc123",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := f.repo.Record(resp.InterviewID)
	if !ok || rec.CandidateID != "CAND-abc123" {
		t.Errorf("expected provided candidate id, got %+v", rec)
	}
}

func TestSubmit_EmptyUploadRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.submitUC().Execute(context.Background(), &SubmitRequest{Video: strings.NewReader("")})
	if !errors.Is(err, domain.ErrMissingVideo) {
		t.Fatalf("expected ErrMissingVideo, got %v", err)
	}
	if len(f.repo.SaveCalls) != 0 {
		t.Error("nothing should be recorded for an empty upload")
	}
	entries, _ := os.ReadDir(f.uploadDir)
	if len(entries) != 0 {
		t.Error("empty upload should not be left on disk")
	}
}

func TestSubmit_QueueFullClosesOutJob(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.DispatchFn = func(context.Context, *domain.InterviewTask) error {
		return domain.ErrQueueFull
	}

	_, err := f.submitUC().Execute(context.Background(), &SubmitRequest{Video: strings.NewReader("v")})
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	id := f.dispatcher.Tasks[0].InterviewID
	rec, ok := f.repo.Record(id)
	if !ok {
		t.Fatal("expected a durable record")
	}
	if rec.Status != domain.StatusFailed {
		t.Errorf("rejected job should be failed, got %s", rec.Status)
	}
	if rec.ErrorMessage == nil || !strings.HasPrefix(*rec.ErrorMessage, "rejected:") {
		t.Errorf("unexpected error message %v", rec.ErrorMessage)
	}
	if _, err := os.Stat(f.dispatcher.Tasks[0].VideoPath); !os.IsNotExist(err) {
		t.Error("staged upload should be removed on rejection")
	}
}

func TestSubmit_CloseOutFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.DispatchFn = func(context.Context, *domain.InterviewTask) error {
		return domain.ErrQueueFull
	}
	saves := 0
	f.repo.SaveFn = func(context.Context, string) error {
		// The processing write succeeds; the close-out write does not.
		if saves++; saves > 1 {
			return errors.New("database unavailable")
		}
		return nil
	}
	core, logs := observer.New(zapcore.WarnLevel)
	uc := NewSubmitInterviewUsecase(f.store, f.dispatcher, f.uploadDir, zap.New(core))

	_, err := uc.Execute(context.Background(), &SubmitRequest{Video: strings.NewReader("v")})
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if n := logs.FilterMessage("Failed to close out rejected interview").Len(); n != 1 {
		t.Errorf("expected the close-out failure to be logged once, got %d", n)
	}
}

func TestSubmit_DispatchErrorMapsToDispatchFailed(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.DispatchFn = func(context.Context, *domain.InterviewTask) error {
		return errors.New("broker unreachable")
	}

	_, err := f.submitUC().Execute(context.Background(), &SubmitRequest{Video: strings.NewReader("v")})
	if !errors.Is(err, domain.ErrDispatchFailed) {
		t.Fatalf("expected ErrDispatchFailed, got %v", err)
	}
}

func TestSubmit_DurableWriteFailureSkipsDispatch(t *testing.T) {
	f := newFixture(t)
	f.repo.SaveFn = func(context.Context, string) error { return errors.New("db down") }

	_, err := f.submitUC().Execute(context.Background(), &SubmitRequest{Video: strings.NewReader("v")})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.dispatcher.Tasks) != 0 {
		t.Error("job must not be dispatched when it was never recorded")
	}
	entries, _ := os.ReadDir(f.uploadDir)
	if len(entries) != 0 {
		t.Error("staged upload should be removed")
	}
}

func TestSubmit_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewInterviewID()
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

// ---- ProcessInterviewUsecase tests ----

func TestProcess_CompletedTextOnly(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-ok", "Go services experience")

	if dup := f.processUC().Execute(context.Background(), task); dup {
		t.Fatal("unexpected duplicate")
	}

	res, err := f.store.Read(context.Background(), task.InterviewID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", res.Status, res.ErrorMessage)
	}
	if res.Report == nil {
		t.Fatal("expected a report")
	}
	if !approx(res.Report.FinalScore, 0.74) || !approx(res.Report.VerbalScore, 0.74) {
		t.Errorf("without vision final should equal verbal, got %+v", res.Report)
	}
	if res.Report.NonVerbalScore != nil || res.Report.CheatingScore != nil {
		t.Error("vision fields should be absent")
	}
	if !approx(res.Report.Confidence, 0.9) {
		t.Errorf("expected engine confidence 0.9, got %v", res.Report.Confidence)
	}
	if f.scorer.References[0] != "Go services experience" {
		t.Errorf("scorer should use the expected answer, got %q", f.scorer.References[0])
	}
	if len(f.idempotent.ReleaseCalls) != 1 {
		t.Error("lock should be released")
	}
	f.assertNoArtifacts(t, task)
}

func TestProcess_BlankExpectedAnswerUsesTranscript(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-ref", "  ")

	f.processUC().Execute(context.Background(), task)

	if got := f.scorer.References[0]; !strings.Contains(got, "five years") {
		t.Errorf("expected transcript as reference, got %q", got)
	}
}

func TestProcess_WithVisionSignal(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-vis", "")

	uc := f.processUC(func(p *Pipeline) { p.Vision = &mock.Vision{} })
	uc.Execute(context.Background(), task)

	res, _ := f.store.Read(context.Background(), task.InterviewID)
	if res.Report == nil || res.Report.NonVerbalScore == nil {
		t.Fatalf("expected non-verbal score, got %+v", res.Report)
	}
	// 0.65*0.74 + 0.35*0.9
	if !approx(res.Report.FinalScore, 0.796) {
		t.Errorf("expected 0.796, got %v", res.Report.FinalScore)
	}
}

func TestProcess_VisionFailureFallsBackToText(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-visfail", "")

	uc := f.processUC(func(p *Pipeline) {
		p.Vision = &mock.Vision{AnalyzeFn: func(context.Context, string) (*domain.VisionSignal, error) {
			return nil, errors.New("model unavailable")
		}}
	})
	uc.Execute(context.Background(), task)

	res, _ := f.store.Read(context.Background(), task.InterviewID)
	if res.Status != domain.StatusCompleted || !approx(res.Report.FinalScore, 0.74) {
		t.Errorf("expected text-only completion, got %+v", res)
	}
}

func TestProcess_EmptyTranscriptFails(t *testing.T) {
	f := newFixture(t)
	f.transcriber.TranscribeFn = func(context.Context, string) (*domain.STTResult, error) {
		return &domain.STTResult{Text: "   \n"}, nil
	}
	task := f.stagedTask(t, "INTV-silent", "")

	f.processUC().Execute(context.Background(), task)

	res, _ := f.store.Read(context.Background(), task.InterviewID)
	if res.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	if !strings.Contains(res.ErrorMessage, "no speech detected") {
		t.Errorf("unexpected error message %q", res.ErrorMessage)
	}
	if res.Report != nil {
		t.Error("failed result should carry no report")
	}
	if len(f.scorer.References) != 0 {
		t.Error("scorer must not run on an empty transcript")
	}
	f.assertNoArtifacts(t, task)
}

func TestProcess_ScorerFailureKeepsTranscript(t *testing.T) {
	f := newFixture(t)
	f.scorer.ScoreFn = func(context.Context, string, string) (*domain.TextScores, error) {
		return nil, domain.ErrScoringFailed
	}
	task := f.stagedTask(t, "INTV-scorefail", "")

	f.processUC().Execute(context.Background(), task)

	rec, _ := f.repo.Record(task.InterviewID)
	if rec.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}
	if rec.ErrorMessage == nil || !strings.HasPrefix(*rec.ErrorMessage, "score:") {
		t.Errorf("expected stage-prefixed message, got %v", rec.ErrorMessage)
	}
	if rec.Transcript == nil {
		t.Error("transcript should be kept when STT succeeded")
	}
	if rec.FinalScore != nil {
		t.Error("failed record should have no scores")
	}
	f.assertNoArtifacts(t, task)
}

func TestProcess_SummaryFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-nosum", "")

	uc := f.processUC(func(p *Pipeline) {
		p.Summarizer = &mock.Summarizer{SummarizeFn: func(context.Context, string) (string, error) {
			return "", errors.New("rate limited")
		}}
	})
	uc.Execute(context.Background(), task)

	res, _ := f.store.Read(context.Background(), task.InterviewID)
	if res.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", res.Status)
	}
	if res.Report.Summary != "" {
		t.Errorf("expected empty summary, got %q", res.Report.Summary)
	}
}

func TestProcess_SummaryIncluded(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-sum", "")

	f.processUC(func(p *Pipeline) { p.Summarizer = &mock.Summarizer{} }).Execute(context.Background(), task)

	res, _ := f.store.Read(context.Background(), task.InterviewID)
	if res.Report.Summary != "The candidate described their Go experience." {
		t.Errorf("unexpected summary %q", res.Report.Summary)
	}
}

func TestProcess_ExtractionFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.extractor.ExtractFn = func(context.Context, string) (string, error) {
		return "", domain.ErrEmptyAudioTrack
	}
	task := f.stagedTask(t, "INTV-noaudio", "")

	f.processUC().Execute(context.Background(), task)

	res, _ := f.store.Read(context.Background(), task.InterviewID)
	if res.Status != domain.StatusFailed || !strings.HasPrefix(res.ErrorMessage, "extract:") {
		t.Errorf("unexpected result %+v", res)
	}
	f.assertNoArtifacts(t, task)
}

func TestProcess_PanicBecomesFailure(t *testing.T) {
	f := newFixture(t)
	f.transcriber.TranscribeFn = func(context.Context, string) (*domain.STTResult, error) {
		panic("decoder exploded")
	}
	task := f.stagedTask(t, "INTV-panic", "")

	f.processUC().Execute(context.Background(), task)

	res, _ := f.store.Read(context.Background(), task.InterviewID)
	if res.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	if !strings.Contains(res.ErrorMessage, "decoder exploded") {
		t.Errorf("expected panic value in message, got %q", res.ErrorMessage)
	}
	f.assertNoArtifacts(t, task)
}

func TestProcess_CancelledContextStillRecordsOutcome(t *testing.T) {
	f := newFixture(t)
	f.extractor.ExtractFn = func(ctx context.Context, _ string) (string, error) {
		return "", ctx.Err()
	}
	task := f.stagedTask(t, "INTV-cancel", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.processUC().Execute(ctx, task)

	rec, _ := f.repo.Record(task.InterviewID)
	if rec.Status != domain.StatusFailed {
		t.Errorf("expected failed after cancellation, got %s", rec.Status)
	}
}

func TestProcess_DuplicateSkipped(t *testing.T) {
	f := newFixture(t)
	f.idempotent.AcquireLockFn = func(context.Context, string) (bool, error) { return false, nil }
	task := f.stagedTask(t, "INTV-dup", "")

	if dup := f.processUC().Execute(context.Background(), task); !dup {
		t.Fatal("expected duplicate")
	}
	if len(f.extractor.Calls) != 0 {
		t.Error("pipeline should not run for a duplicate")
	}
	if len(f.idempotent.ReleaseCalls) != 0 {
		t.Error("lock held by another worker must not be released")
	}
	rec, _ := f.repo.Record(task.InterviewID)
	if rec.Status != domain.StatusProcessing {
		t.Errorf("record should be untouched, got %s", rec.Status)
	}
}

func TestProcess_AlreadyTerminalSkipped(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-late", "")
	if err := f.store.WriteTerminal(context.Background(), task.InterviewID, task.CandidateID,
		domain.Failed("rejected: confirmation timeout", nil)); err != nil {
		t.Fatal(err)
	}

	if dup := f.processUC().Execute(context.Background(), task); !dup {
		t.Fatal("expected terminal interview to be skipped")
	}
	if len(f.extractor.Calls) != 0 {
		t.Error("pipeline should not run for a terminal interview")
	}
}

func TestProcess_LockErrorFailsOpen(t *testing.T) {
	f := newFixture(t)
	f.idempotent.AcquireLockFn = func(context.Context, string) (bool, error) {
		return false, errors.New("redis: connection refused")
	}
	task := f.stagedTask(t, "INTV-lockerr", "")

	if dup := f.processUC().Execute(context.Background(), task); dup {
		t.Fatal("lock errors must not be treated as duplicates")
	}
	rec, _ := f.repo.Record(task.InterviewID)
	if rec.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", rec.Status)
	}
}

func TestProcess_NilIdempotencyStore(t *testing.T) {
	f := newFixture(t)
	task := f.stagedTask(t, "INTV-nolock", "")

	uc := NewProcessInterviewUsecase(f.store, nil, Pipeline{
		Extractor:   f.extractor,
		Cleaner:     f.cleaner,
		Transcriber: f.transcriber,
		Scorer:      f.scorer,
	}, zap.NewNop())
	uc.Execute(context.Background(), task)

	rec, _ := f.repo.Record(task.InterviewID)
	if rec.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", rec.Status)
	}
}

// ---- GetResultUsecase tests ----

func TestGetResult_NotFound(t *testing.T) {
	f := newFixture(t)
	uc := NewGetResultUsecase(f.store, zap.NewNop())

	_, err := uc.Execute(context.Background(), "INTV-missing")
	if !errors.Is(err, domain.ErrInterviewNotFound) {
		t.Errorf("expected ErrInterviewNotFound, got %v", err)
	}
}

// ---- Shutdown of the in-process pool ----

// shutdownLocal mirrors the server's shutdown: stop admission, drain, then close out
// whatever never started.
func shutdownLocal(d *dispatch.LocalDispatcher, wp *pool.WorkerPool, abort context.CancelFunc, uc *ProcessInterviewUsecase, timeout time.Duration) {
	d.Close()
	for _, msg := range wp.Drain(timeout, abort) {
		uc.Abandon(context.Background(), msg.Task, domain.ErrInterrupted.Error())
	}
}

func submitN(t *testing.T, f *fixture, d *dispatch.LocalDispatcher, n int) []string {
	t.Helper()
	submit := NewSubmitInterviewUsecase(f.store, d, f.uploadDir, zap.NewNop())
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		resp, err := submit.Execute(context.Background(), &SubmitRequest{
			Video:          strings.NewReader("video"),
			Filename:       "a.mp4",
			ExpectedAnswer: "answer",
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		ids = append(ids, resp.InterviewID)
	}
	return ids
}

func TestShutdown_InterruptedJobsAreClosedOut(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{}, 4)
	f.extractor.ExtractFn = func(ctx context.Context, _ string) (string, error) {
		started <- struct{}{}
		<-ctx.Done()
		return "", ctx.Err()
	}
	uc := f.processUC()
	uc.idempotent = nil

	d := dispatch.NewLocalDispatcher(4, zap.NewNop())
	workCtx, abort := context.WithCancel(context.Background())
	wp := pool.NewWorkerPool(1, d.Tasks(), uc, zap.NewNop())
	wp.Start(workCtx)

	ids := submitN(t, f, d, 4)
	<-started

	shutdownLocal(d, wp, abort, uc, 50*time.Millisecond)

	for _, id := range ids {
		res, err := f.store.Read(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != domain.StatusFailed {
			t.Errorf("%s: expected failed after shutdown, got %s", id, res.Status)
		}
		if !strings.HasPrefix(res.ErrorMessage, domain.ErrInterrupted.Error()) {
			t.Errorf("%s: expected interruption message, got %q", id, res.ErrorMessage)
		}
	}
	entries, err := os.ReadDir(f.uploadDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected staged uploads removed, found %d", len(entries))
	}
}

func TestShutdown_DrainCompletesQueuedJobs(t *testing.T) {
	f := newFixture(t)
	uc := f.processUC()
	uc.idempotent = nil

	d := dispatch.NewLocalDispatcher(4, zap.NewNop())
	workCtx, abort := context.WithCancel(context.Background())
	defer abort()
	wp := pool.NewWorkerPool(1, d.Tasks(), uc, zap.NewNop())
	wp.Start(workCtx)

	ids := submitN(t, f, d, 3)
	shutdownLocal(d, wp, abort, uc, 5*time.Second)

	for _, id := range ids {
		res, err := f.store.Read(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != domain.StatusCompleted {
			t.Errorf("%s: queued job should finish during drain, got %s (%s)", id, res.Status, res.ErrorMessage)
		}
	}
}
