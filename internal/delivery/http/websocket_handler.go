package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/usecase"
)

const (
	pollInterval   = 500 * time.Millisecond
	writeWait      = 10 * time.Second
	maxClientFrame = 512
)

var upgrader = websocket.Upgrader{
	// Origin policy is enforced by the CORS wrapper.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler pushes interview results until they reach a terminal state.
type WebSocketHandler struct {
	getResultUC *usecase.GetResultUsecase
	logger      *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(getResultUC *usecase.GetResultUsecase, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		getResultUC: getResultUC,
		logger:      logger,
	}
}

// Stream handles GET /api/interviews/result/:id/stream (WebSocket upgrade)
func (h *WebSocketHandler) Stream(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// Unknown ids are rejected before upgrading so plain HTTP clients get a 404.
	if _, err := h.getResultUC.Execute(ctx, id); errors.Is(err, domain.ErrInterviewNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interview not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket connection opened", zap.String("interview_id", id))

	// A hijacked connection does not cancel the request context, so the reader
	// is what notices a client going away.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastStatus domain.InterviewStatus
	for {
		res, err := h.getResultUC.Execute(ctx, id)
		if err != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteJSON(gin.H{"error": "Interview not available"})
			return
		}

		// Only push when something changed; the first message is always sent.
		if res.Status != lastStatus {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(res); err != nil {
				h.logger.Debug("WebSocket write failed (client disconnected)", zap.Error(err))
				return
			}
			lastStatus = res.Status
		}

		if res.Status.IsTerminal() {
			h.logger.Debug("Interview reached terminal state, closing WebSocket", zap.String("interview_id", id))
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(res.Status)),
				time.Now().Add(writeWait))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// readUntilClosed consumes client frames so close and ping control frames are
// handled, and cancels once the connection fails or the client closes it.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxClientFrame)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
