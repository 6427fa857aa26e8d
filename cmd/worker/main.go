package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/app"
	"github.com/Harsh-BH/intervue/internal/cache"
	"github.com/Harsh-BH/intervue/internal/config"
	amqpdelivery "github.com/Harsh-BH/intervue/internal/delivery/amqp"
	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/pool"
	"github.com/Harsh-BH/intervue/internal/resultstore"
	"github.com/Harsh-BH/intervue/internal/usecase"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting intervue processing worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open interview store", zap.Error(err))
	}
	defer store.Close()

	redisClient, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// The worker's cache only serves its own terminal writes; the API reconciles from the store.
	results := resultstore.New(store.Repo, cache.NewMemoryCache(), logger)
	processUC := usecase.NewProcessInterviewUsecase(
		results,
		app.NewIdempotencyStore(redisClient),
		app.NewPipeline(cfg, logger),
		logger,
	)

	tasks := make(chan *domain.TaskMessage, cfg.Worker.PoolSize)

	consumer, err := amqpdelivery.NewConsumer(cfg.RabbitMQ.URL, tasks, logger)
	if err != nil {
		logger.Fatal("Failed to initialize AMQP consumer", zap.Error(err))
	}
	defer consumer.Close()
	logger.Info("Connected to RabbitMQ")

	// Interviews keep running after a signal until the drain deadline.
	workCtx, abortWork := context.WithCancel(context.Background())
	defer abortWork()
	workerPool := pool.NewWorkerPool(cfg.Worker.PoolSize, tasks, processUC, logger)
	workerPool.Start(workCtx)

	go func() {
		// The consumer is the only sender; closing tasks lets the pool drain.
		defer close(tasks)
		if err := consumer.Start(ctx); err != nil {
			logger.Error("AMQP consumer error", zap.Error(err))
			cancel()
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Worker.MetricsPort), Handler: mux}
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Unstarted deliveries go back to the broker; the channel is still open here.
	for _, msg := range workerPool.Drain(cfg.Worker.DrainTimeout, abortWork) {
		if err := msg.Nack(true); err != nil {
			logger.Warn("Failed to requeue interview", zap.String("interview_id", msg.Task.InterviewID), zap.Error(err))
		}
	}
	if err := consumer.Close(); err != nil {
		logger.Warn("Failed to close AMQP consumer", zap.Error(err))
	}
	_ = metricsSrv.Close()

	logger.Info("Worker stopped")
}
