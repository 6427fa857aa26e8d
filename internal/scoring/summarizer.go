package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/openaiapi"
)

// MaxSummarySentences caps the length of a generated summary.
const MaxSummarySentences = 3

// OpenAISummarizer writes a short summary of a transcript.
type OpenAISummarizer struct {
	api        API
	model      string
	maxElapsed time.Duration
	logger     *zap.Logger
}

// NewOpenAISummarizer creates a summarizer backed by a chat model.
func NewOpenAISummarizer(api API, model string, maxElapsed time.Duration, logger *zap.Logger) *OpenAISummarizer {
	return &OpenAISummarizer{api: api, model: model, maxElapsed: maxElapsed, logger: logger}
}

// Summarize returns at most three sentences describing the transcript.
func (s *OpenAISummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	var resp openai.ChatCompletionResponse
	err := openaiapi.Retry(ctx, s.maxElapsed, func() error {
		var err error
		resp, err = s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: fmt.Sprintf("Summarize the candidate's interview answer in at most %d sentences, in the language of the answer.", MaxSummarySentences),
				},
				{Role: openai.ChatMessageRoleUser, Content: transcript},
			},
			MaxTokens: 200,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summarize: empty completion")
	}
	return ClipSentences(strings.TrimSpace(resp.Choices[0].Message.Content), MaxSummarySentences), nil
}

// ClipSentences keeps the first n sentences of text.
func ClipSentences(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return strings.TrimSpace(text)
}
