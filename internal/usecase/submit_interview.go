package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/metrics"
	"github.com/Harsh-BH/intervue/internal/repository"
	"github.com/Harsh-BH/intervue/internal/resultstore"
)

const (
	// uploadChunkSize bounds memory used while staging an upload.
	uploadChunkSize  = 1 << 20 // 1 MB
	defaultVideoExt  = ".mp4"
	interviewPrefix  = "INTV-"
	candidatePrefix  = "CAND-"
	candidateHexSize = 6
)

// SubmitRequest is one interview upload.
type SubmitRequest struct {
	Video          io.Reader
	Filename       string
	CandidateID    string
	ExpectedAnswer string
}

// SubmitInterviewUsecase accepts uploads, records them as processing and schedules processing.
type SubmitInterviewUsecase struct {
	store      *resultstore.ResultStore
	dispatcher repository.Dispatcher
	uploadDir  string
	logger     *zap.Logger
}

// NewSubmitInterviewUsecase creates a new SubmitInterviewUsecase.
func NewSubmitInterviewUsecase(store *resultstore.ResultStore, dispatcher repository.Dispatcher, uploadDir string, logger *zap.Logger) *SubmitInterviewUsecase {
	return &SubmitInterviewUsecase{
		store:      store,
		dispatcher: dispatcher,
		uploadDir:  uploadDir,
		logger:     logger,
	}
}

// Execute stages the video, durably records the processing state and dispatches the job.
// It returns once the job is visible to readers; it never waits for processing.
func (uc *SubmitInterviewUsecase) Execute(ctx context.Context, req *SubmitRequest) (*domain.SubmitResponse, error) {
	if req == nil || req.Video == nil {
		return nil, domain.ErrMissingVideo
	}

	interviewID, err := NewInterviewID()
	if err != nil {
		return nil, err
	}
	candidateID := strings.TrimSpace(req.CandidateID)
	if candidateID == "" {
		candidateID = NewCandidateID()
	}

	videoPath, err := uc.stage(interviewID, req)
	if err != nil {
		return nil, err
	}

	if err := uc.store.WriteProcessing(ctx, interviewID, candidateID); err != nil {
		uc.logger.Error("Failed to record interview", zap.String("interview_id", interviewID), zap.Error(err))
		uc.discard(videoPath)
		return nil, fmt.Errorf("record interview: %w", err)
	}

	task := &domain.InterviewTask{
		InterviewID:    interviewID,
		CandidateID:    candidateID,
		VideoPath:      videoPath,
		ExpectedAnswer: req.ExpectedAnswer,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := uc.dispatcher.Dispatch(ctx, task); err != nil {
		uc.logger.Error("Failed to dispatch interview", zap.String("interview_id", interviewID), zap.Error(err))
		uc.discard(videoPath)
		// The job was visible as processing; close it out so it never looks stuck.
		if werr := uc.store.WriteTerminal(context.WithoutCancel(ctx), interviewID, candidateID,
			domain.Failed("rejected: "+err.Error(), nil)); werr != nil {
			uc.logger.Warn("Failed to close out rejected interview",
				zap.String("interview_id", interviewID),
				zap.Error(werr),
			)
		}
		if errors.Is(err, domain.ErrQueueFull) {
			return nil, domain.ErrQueueFull
		}
		return nil, domain.ErrDispatchFailed
	}

	metrics.InterviewsSubmitted.Inc()
	uc.logger.Info("Interview submitted",
		zap.String("interview_id", interviewID),
		zap.String("candidate_id", candidateID),
	)

	return &domain.SubmitResponse{
		InterviewID: interviewID,
		Status:      domain.StatusProcessing,
	}, nil
}

// stage streams the upload to disk in fixed-size chunks.
func (uc *SubmitInterviewUsecase) stage(interviewID string, req *SubmitRequest) (string, error) {
	if err := os.MkdirAll(uc.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if ext == "" {
		ext = defaultVideoExt
	}
	path := filepath.Join(uc.uploadDir, interviewID+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	n, err := io.CopyBuffer(f, req.Video, make([]byte, uploadChunkSize))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		uc.discard(path)
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if n == 0 {
		uc.discard(path)
		return "", domain.ErrMissingVideo
	}

	uc.logger.Debug("Upload staged", zap.String("path", path), zap.Int64("bytes", n))
	return path, nil
}

func (uc *SubmitInterviewUsecase) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		uc.logger.Warn("Failed to remove staged upload", zap.String("path", path), zap.Error(err))
	}
}

// NewInterviewID returns a time-ordered interview id.
func NewInterviewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate UUIDv7: %w", err)
	}
	return interviewPrefix + strings.ReplaceAll(id.String(), "-", ""), nil
}

// NewCandidateID returns a short random candidate id.
func NewCandidateID() string {
	return candidatePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:candidateHexSize]
}
