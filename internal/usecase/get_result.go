package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/resultstore"
)

// GetResultUsecase handles fetching interview status and reports.
type GetResultUsecase struct {
	store  *resultstore.ResultStore
	logger *zap.Logger
}

// NewGetResultUsecase creates a new GetResultUsecase.
func NewGetResultUsecase(store *resultstore.ResultStore, logger *zap.Logger) *GetResultUsecase {
	return &GetResultUsecase{
		store:  store,
		logger: logger,
	}
}

// Execute retrieves an interview result by its ID.
func (uc *GetResultUsecase) Execute(ctx context.Context, id string) (*domain.InterviewResult, error) {
	res, err := uc.store.Read(ctx, id)
	if err != nil {
		uc.logger.Debug("Interview lookup failed", zap.String("interview_id", id), zap.Error(err))
		return nil, err
	}
	return res, nil
}
