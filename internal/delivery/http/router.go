package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/delivery/http/middleware"
	"github.com/Harsh-BH/intervue/internal/usecase"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	SubmitUC        *usecase.SubmitInterviewUsecase
	GetResultUC     *usecase.GetResultUsecase
	Checks          map[string]Pinger
	Logger          *zap.Logger
	RateLimitPerMin int
	MaxUploadBytes  int64
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))

	// Unthrottled operational endpoints.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	healthHandler := NewHealthHandler(deps.Checks, deps.Logger)
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/interviews")
	api.Use(middleware.RateLimiter(deps.RateLimitPerMin))
	{
		interviewHandler := NewInterviewHandler(deps.SubmitUC, deps.GetResultUC, deps.Logger)
		api.POST("/upload", middleware.BodySizeLimit(deps.MaxUploadBytes), interviewHandler.Upload)
		api.GET("/result/:id", interviewHandler.GetResult)

		wsHandler := NewWebSocketHandler(deps.GetResultUC, deps.Logger)
		api.GET("/result/:id/stream", wsHandler.Stream)
	}

	return router
}

// WithCORS wraps the engine so browsers on other origins can upload and poll.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(h)
}
