package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/app"
	"github.com/Harsh-BH/intervue/internal/cache"
	"github.com/Harsh-BH/intervue/internal/config"
	handler "github.com/Harsh-BH/intervue/internal/delivery/http"
	"github.com/Harsh-BH/intervue/internal/dispatch"
	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/pool"
	"github.com/Harsh-BH/intervue/internal/publisher"
	"github.com/Harsh-BH/intervue/internal/repository"
	"github.com/Harsh-BH/intervue/internal/resultstore"
	"github.com/Harsh-BH/intervue/internal/usecase"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting intervue API server")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open interview store", zap.Error(err))
	}
	defer store.Close()

	results := resultstore.New(store.Repo, cache.NewMemoryCache(), logger)
	checks := map[string]handler.Pinger{cfg.Store.Driver: store.Ping}

	var (
		dispatcher repository.Dispatcher
		local      *dispatch.LocalDispatcher
		processUC  *usecase.ProcessInterviewUsecase
		workerPool *pool.WorkerPool
	)
	// In-process interviews outlive the HTTP server; they are only aborted once the
	// drain deadline passes.
	workCtx, abortWork := context.WithCancel(context.Background())
	defer abortWork()

	switch cfg.Worker.DispatchMode {
	case config.DispatchAMQP:
		pub, err := publisher.NewRabbitMQPublisher(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
		}
		defer pub.Close()
		dispatcher = pub
		logger.Info("Dispatching interviews to RabbitMQ")

	default:
		local = dispatch.NewLocalDispatcher(cfg.Worker.QueueSize, logger)
		// Local tasks are never redelivered, so no idempotency lock is needed.
		processUC = usecase.NewProcessInterviewUsecase(results, nil, app.NewPipeline(cfg, logger), logger)
		workerPool = pool.NewWorkerPool(cfg.Worker.PoolSize, local.Tasks(), processUC, logger)
		workerPool.Start(workCtx)
		dispatcher = local
		logger.Info("Processing interviews in-process",
			zap.Int("pool_size", cfg.Worker.PoolSize),
			zap.Int("queue_size", cfg.Worker.QueueSize),
		)
	}

	submitUC := usecase.NewSubmitInterviewUsecase(results, dispatcher, cfg.Media.UploadDir, logger)
	getResultUC := usecase.NewGetResultUsecase(results, logger)

	router := handler.NewRouter(handler.RouterDeps{
		SubmitUC:        submitUC,
		GetResultUC:     getResultUC,
		Checks:          checks,
		Logger:          logger,
		RateLimitPerMin: cfg.Server.RateLimit,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.WithCORS(router, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if local != nil {
		local.Close()
		left := workerPool.Drain(cfg.Worker.DrainTimeout, abortWork)
		for _, msg := range left {
			processUC.Abandon(context.Background(), msg.Task, domain.ErrInterrupted.Error())
		}
		if len(left) > 0 {
			logger.Warn("Queued interviews closed out at shutdown", zap.Int("count", len(left)))
		}
	}
	cancel()

	logger.Info("API server stopped")
}
