// Package scoring rates a transcript for fluency and relevance to an expected answer.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/openaiapi"
)

const (
	relevanceWeight = 0.6
	fluencyWeight   = 0.4
)

const fluencyPrompt = `You grade spoken interview answers for linguistic acceptability.
Rate how fluent and grammatically well-formed the answer is, ignoring its content.
Respond with a JSON object {"fluency": <number between 0 and 1>} and nothing else.`

// API is the subset of the OpenAI client used for scoring and summaries.
type API interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIScorer computes relevance from embedding similarity and fluency from a rating model.
type OpenAIScorer struct {
	api            API
	embeddingModel string
	fluencyModel   string
	maxElapsed     time.Duration
	logger         *zap.Logger
}

// NewOpenAIScorer creates a scorer. maxElapsed bounds the retry time of each call.
func NewOpenAIScorer(api API, embeddingModel, fluencyModel string, maxElapsed time.Duration, logger *zap.Logger) *OpenAIScorer {
	return &OpenAIScorer{
		api:            api,
		embeddingModel: embeddingModel,
		fluencyModel:   fluencyModel,
		maxElapsed:     maxElapsed,
		logger:         logger,
	}
}

// Score rates candidate against reference. overall = 0.6·relevance + 0.4·fluency.
func (s *OpenAIScorer) Score(ctx context.Context, candidate, reference string) (*domain.TextScores, error) {
	relevance, err := s.relevance(ctx, candidate, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: relevance: %v", domain.ErrScoringFailed, err)
	}
	fluency, err := s.fluency(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: fluency: %v", domain.ErrScoringFailed, err)
	}

	scores := &domain.TextScores{
		Fluency:   fluency,
		Relevance: relevance,
		Overall:   relevanceWeight*relevance + fluencyWeight*fluency,
	}
	s.logger.Debug("Transcript scored",
		zap.Float64("fluency", scores.Fluency),
		zap.Float64("relevance", scores.Relevance),
		zap.Float64("overall", scores.Overall),
	)
	return scores, nil
}

func (s *OpenAIScorer) relevance(ctx context.Context, candidate, reference string) (float64, error) {
	var resp openai.EmbeddingResponse
	err := openaiapi.Retry(ctx, s.maxElapsed, func() error {
		var err error
		resp, err = s.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{candidate, reference},
			Model: openai.EmbeddingModel(s.embeddingModel),
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Data) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(resp.Data))
	}

	vecs := make([][]float32, 2)
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index > 1 {
			return 0, fmt.Errorf("unexpected embedding index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return clamp01(Cosine(vecs[0], vecs[1])), nil
}

func (s *OpenAIScorer) fluency(ctx context.Context, candidate string) (float64, error) {
	var resp openai.ChatCompletionResponse
	err := openaiapi.Retry(ctx, s.maxElapsed, func() error {
		var err error
		resp, err = s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.fluencyModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: fluencyPrompt},
				{Role: openai.ChatMessageRoleUser, Content: candidate},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0,
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Choices) == 0 {
		return 0, errors.New("empty completion")
	}

	var rating struct {
		Fluency *float64 `json:"fluency"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &rating); err != nil {
		return 0, fmt.Errorf("decode fluency rating: %w", err)
	}
	if rating.Fluency == nil {
		return 0, errors.New("fluency rating missing")
	}
	return clamp01(*rating.Fluency), nil
}

// Cosine returns the cosine similarity of a and b, or 0 for mismatched or zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
