package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/usecase"
)

// multipartMemory is how much of an upload is held in memory before spilling to a temp file.
const multipartMemory = 32 << 20

// InterviewHandler handles HTTP requests for interview uploads and results.
type InterviewHandler struct {
	submitUC    *usecase.SubmitInterviewUsecase
	getResultUC *usecase.GetResultUsecase
	logger      *zap.Logger
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(submitUC *usecase.SubmitInterviewUsecase, getResultUC *usecase.GetResultUsecase, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		submitUC:    submitUC,
		getResultUC: getResultUC,
		logger:      logger,
	}
}

// Upload handles POST /api/interviews/upload
func (h *InterviewHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart body: " + err.Error()})
		return
	}
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingVideo.Error()})
		return
	}
	defer file.Close()

	resp, err := h.submitUC.Execute(c.Request.Context(), &usecase.SubmitRequest{
		Video:          file,
		Filename:       header.Filename,
		CandidateID:    c.PostForm("candidate_id"),
		ExpectedAnswer: c.PostForm("expected_answer"),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingVideo):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrQueueFull):
			c.Header("Retry-After", "30")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Processing queue is full, try again later"})
		case errors.Is(err, domain.ErrDispatchFailed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		default:
			h.logger.Error("Interview upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GetResult handles GET /api/interviews/result/:id
func (h *InterviewHandler) GetResult(c *gin.Context) {
	id := c.Param("id")

	res, err := h.getResultUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrInterviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Interview not found"})
			return
		}
		h.logger.Error("Get interview result failed", zap.Error(err), zap.String("interview_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, res)
}
