// Package openaiapi holds the client construction and retry policy shared by the
// speech and scoring backends.
package openaiapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
)

// NewClient builds a go-openai client, overriding the base URL when set.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Retryable reports whether an API error is worth another attempt. Client errors
// other than rate limiting are permanent, whether the body was an API error or not.
func Retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Retry runs call with exponential backoff until it succeeds, fails permanently,
// ctx ends or maxElapsed passes.
func Retry(ctx context.Context, maxElapsed time.Duration, call func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	op := func() error {
		err := call()
		if err != nil && !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
