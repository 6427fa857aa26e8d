package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/metrics"
	"github.com/Harsh-BH/intervue/internal/report"
	"github.com/Harsh-BH/intervue/internal/repository"
	"github.com/Harsh-BH/intervue/internal/resultstore"
)

// Pipeline stage names, used in failure messages and metrics.
const (
	StageExtract    = "extract"
	StageClean      = "clean"
	StageTranscribe = "transcribe"
	StageValidate   = "validate"
	StageScore      = "score"
	StageSummarize  = "summarize"
	StageVision     = "vision"
	StageAggregate  = "aggregate"
)

// Pipeline holds the stage collaborators. Summarizer and Vision are optional.
type Pipeline struct {
	Extractor   repository.AudioExtractor
	Cleaner     repository.AudioCleaner
	Transcriber repository.Transcriber
	Scorer      repository.TextScorer
	Summarizer  repository.Summarizer
	Vision      repository.VisionAnalyzer
}

// ProcessInterviewUsecase drives one interview from staged video to a terminal record.
type ProcessInterviewUsecase struct {
	store      *resultstore.ResultStore
	idempotent repository.IdempotencyStore
	pipeline   Pipeline
	logger     *zap.Logger
}

// NewProcessInterviewUsecase creates a new ProcessInterviewUsecase. idempotent may be nil
// when tasks are never redelivered.
func NewProcessInterviewUsecase(
	store *resultstore.ResultStore,
	idempotent repository.IdempotencyStore,
	pipeline Pipeline,
	logger *zap.Logger,
) *ProcessInterviewUsecase {
	return &ProcessInterviewUsecase{
		store:      store,
		idempotent: idempotent,
		pipeline:   pipeline,
		logger:     logger,
	}
}

// Execute runs the pipeline and records exactly one terminal outcome. Failures are
// written as failed records, never returned. Returns true if the task was a duplicate.
func (uc *ProcessInterviewUsecase) Execute(ctx context.Context, task *domain.InterviewTask) (duplicate bool) {
	log := uc.logger.With(
		zap.String("interview_id", task.InterviewID),
		zap.String("candidate_id", task.CandidateID),
	)

	if uc.idempotent != nil {
		acquired, err := uc.idempotent.AcquireLock(ctx, task.InterviewID)
		switch {
		case err != nil:
			// Processing twice is better than never; the terminal write is an upsert.
			log.Warn("Idempotency lock unavailable, processing anyway", zap.Error(err))
		case !acquired:
			log.Info("Duplicate interview task detected, skipping")
			return true
		default:
			defer func() {
				if err := uc.idempotent.ReleaseLock(context.WithoutCancel(ctx), task.InterviewID); err != nil {
					log.Warn("Failed to release idempotency lock", zap.Error(err))
				}
			}()
		}
	}

	// A task whose interview already ended is a late redelivery or was rejected at submit.
	if res, err := uc.store.Read(ctx, task.InterviewID); err == nil && res.Status.IsTerminal() {
		log.Info("Interview already terminal, skipping", zap.String("status", string(res.Status)))
		return true
	}

	start := time.Now()
	var rawAudio string
	defer uc.cleanup(log, task.VideoPath, &rawAudio)

	out, err := uc.process(ctx, task, &rawAudio, log)
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", domain.ErrInterrupted, err)
	}
	if err != nil {
		log.Error("Interview processing failed", zap.Error(err))
		out = domain.Failed(err.Error(), out.Transcript)
	}

	if err := uc.store.WriteTerminal(context.WithoutCancel(ctx), task.InterviewID, task.CandidateID, out); err != nil {
		log.Error("Failed to persist interview outcome", zap.String("status", string(out.Status)), zap.Error(err))
	}

	metrics.InterviewsProcessed.WithLabelValues(string(out.Status)).Inc()
	log.Info("Interview processed",
		zap.String("status", string(out.Status)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return false
}

// Abandon closes out a task that will never run, recording reason as a failure and
// removing the staged upload.
func (uc *ProcessInterviewUsecase) Abandon(ctx context.Context, task *domain.InterviewTask, reason string) {
	log := uc.logger.With(zap.String("interview_id", task.InterviewID))

	empty := ""
	uc.cleanup(log, task.VideoPath, &empty)

	out := domain.Failed(reason, nil)
	if err := uc.store.WriteTerminal(context.WithoutCancel(ctx), task.InterviewID, task.CandidateID, out); err != nil {
		log.Error("Failed to persist abandoned interview", zap.Error(err))
	}
	metrics.InterviewsProcessed.WithLabelValues(string(out.Status)).Inc()
	log.Warn("Interview abandoned", zap.String("reason", reason))
}

// process runs the stages in order. On error the returned outcome may still carry the transcript.
func (uc *ProcessInterviewUsecase) process(ctx context.Context, task *domain.InterviewTask, rawAudio *string, log *zap.Logger) (out domain.TerminalOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Pipeline panic recovered", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	p := uc.pipeline

	t := time.Now()
	raw, err := p.Extractor.Extract(ctx, task.VideoPath)
	observe(StageExtract, t)
	if err != nil {
		return out, &domain.StageError{Stage: StageExtract, Err: err}
	}
	*rawAudio = raw

	t = time.Now()
	cleaned, err := p.Cleaner.Clean(ctx, raw)
	observe(StageClean, t)
	if err != nil {
		return out, &domain.StageError{Stage: StageClean, Err: err}
	}
	defer func() {
		if err := cleaned.Cleanup(); err != nil {
			log.Warn("Failed to remove cleaned audio", zap.Error(err))
		}
	}()

	t = time.Now()
	stt, err := p.Transcriber.Transcribe(ctx, cleaned.Path)
	observe(StageTranscribe, t)
	if err != nil {
		return out, &domain.StageError{Stage: StageTranscribe, Err: err}
	}
	if strings.TrimSpace(stt.Text) == "" {
		return out, &domain.StageError{Stage: StageValidate, Err: domain.ErrEmptyTranscript}
	}
	out.Transcript = &domain.Transcript{Text: stt.Text, Segments: stt.Segments}

	reference := task.ExpectedAnswer
	if strings.TrimSpace(reference) == "" {
		reference = stt.Text
	}

	t = time.Now()
	scores, err := p.Scorer.Score(ctx, stt.Text, reference)
	observe(StageScore, t)
	if err != nil {
		return out, &domain.StageError{Stage: StageScore, Err: err}
	}

	scoring := &domain.ScoringResult{Scores: *scores}
	if p.Summarizer != nil {
		t = time.Now()
		summary, err := p.Summarizer.Summarize(ctx, stt.Text)
		observe(StageSummarize, t)
		if err != nil {
			log.Warn("Summary unavailable, continuing without it", zap.Error(err))
		} else {
			scoring.Summary = summary
		}
	}

	var vision *domain.VisionSignal
	if p.Vision != nil {
		t = time.Now()
		vision, err = p.Vision.Analyze(ctx, task.VideoPath)
		observe(StageVision, t)
		if err != nil {
			log.Warn("Vision signal unavailable, scoring text only", zap.Error(err))
			vision = nil
		}
	}

	rep, err := report.Aggregate(stt, scoring, vision)
	if err != nil {
		return out, &domain.StageError{Stage: StageAggregate, Err: err}
	}

	return domain.Completed(rep, out.Transcript, scores), nil
}

// cleanup removes the raw audio and the staged upload. Failures are logged only.
func (uc *ProcessInterviewUsecase) cleanup(log *zap.Logger, videoPath string, rawAudio *string) {
	for _, path := range []string{*rawAudio, videoPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove interview artifact", zap.String("path", path), zap.Error(err))
		}
	}
}

func observe(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
