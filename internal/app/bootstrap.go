// Package app wires configuration into the stores, pipeline stages and usecases shared by
// the server and worker binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/audio"
	"github.com/Harsh-BH/intervue/internal/config"
	handler "github.com/Harsh-BH/intervue/internal/delivery/http"
	"github.com/Harsh-BH/intervue/internal/media"
	"github.com/Harsh-BH/intervue/internal/openaiapi"
	"github.com/Harsh-BH/intervue/internal/repository"
	"github.com/Harsh-BH/intervue/internal/repository/mongodb"
	"github.com/Harsh-BH/intervue/internal/repository/postgres"
	redisrepo "github.com/Harsh-BH/intervue/internal/repository/redis"
	"github.com/Harsh-BH/intervue/internal/scoring"
	"github.com/Harsh-BH/intervue/internal/speech"
	"github.com/Harsh-BH/intervue/internal/usecase"
)

const connectTimeout = 10 * time.Second

// Store is an opened durable store with its health check and cleanup.
type Store struct {
	Repo  repository.InterviewRepository
	Ping  handler.Pinger
	Close func()
}

// OpenStore connects to the configured durable store and applies the schema where needed.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Store.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		logger.Info("Connected to MongoDB", zap.String("database", cfg.Store.MongoDatabase))

		return &Store{
			Repo: mongodb.NewMongoInterviewRepo(client, client.Database(cfg.Store.MongoDatabase)),
			Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
			Close: func() {
				_ = client.Disconnect(context.Background())
			},
		}, nil

	default:
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Connected to PostgreSQL")

		return &Store{
			Repo:  postgres.NewPostgresInterviewRepository(pool),
			Ping:  pool.Ping,
			Close: pool.Close,
		}, nil
	}
}

// OpenRedis connects the client backing the idempotency lock.
func OpenRedis(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewIdempotencyStore wraps an opened Redis client.
func NewIdempotencyStore(client *goredis.Client) repository.IdempotencyStore {
	return redisrepo.NewRedisIdempotencyStore(client, redisrepo.DefaultLockTTL)
}

// RedisPinger adapts a Redis client to a health check.
func RedisPinger(client *goredis.Client) handler.Pinger {
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}

// NewCleaner selects the audio preprocessing strategy for this host.
func NewCleaner(cfg *config.Config, logger *zap.Logger) audio.Preprocessor {
	p := audio.NewPreprocessor(cfg.Media.SoxPath, logger)
	logger.Info("Audio preprocessor selected", zap.String("strategy", p.Name()))
	return p
}

// NewTranscriber builds the Whisper client from config.
func NewTranscriber(cfg *config.Config, logger *zap.Logger) *speech.WhisperClient {
	client := openaiapi.NewClient(cfg.STT.APIKey, cfg.STT.BaseURL)
	return speech.NewWhisperClient(client, cfg.STT.Model, cfg.STT.Timeout, logger)
}

// NewPipeline builds every stage of the interview pipeline. Vision has no backend yet
// and stays nil, which makes reports text-only.
func NewPipeline(cfg *config.Config, logger *zap.Logger) usecase.Pipeline {
	scoringClient := openaiapi.NewClient(cfg.Scoring.APIKey, cfg.Scoring.BaseURL)

	p := usecase.Pipeline{
		Extractor:   media.NewFFmpegExtractor(cfg.Media.FFmpegPath, cfg.Media.AudioDir, cfg.Media.ExtractTimeout, logger),
		Cleaner:     NewCleaner(cfg, logger),
		Transcriber: NewTranscriber(cfg, logger),
		Scorer: scoring.NewOpenAIScorer(scoringClient,
			cfg.Scoring.EmbeddingModel, cfg.Scoring.FluencyModel, cfg.Scoring.Timeout, logger),
	}
	if cfg.Scoring.SummaryEnabled {
		p.Summarizer = scoring.NewOpenAISummarizer(scoringClient, cfg.Scoring.SummaryModel, cfg.Scoring.Timeout, logger)
	}
	return p
}
