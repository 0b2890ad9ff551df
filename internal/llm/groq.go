// Package llm talks to Groq through its OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/config"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/metrics"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/retry"
)

const provider = "groq"

var (
	ErrNotConfigured = errors.New("GROQ_API_KEY is not configured")
	ErrEmptyResponse = errors.New("no response from Groq API")
)

// Completer returns the raw text of a JSON-mode chat completion.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
	retry       retry.Options
	logger      *zap.Logger
}

func NewGroqClient(cfg config.Groq, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultGroqModel
	}

	logger.Info("Initializing Groq client", zap.String("model", model), zap.String("base_url", oc.BaseURL))
	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		retry:       retry.WithRetries(cfg.MaxRetries),
		logger:      logger,
	}, nil
}

func (c *Client) Model() string { return c.model }

// CompleteJSON sends a system and a user message with JSON response format
// and returns the first choice's content.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	opts := c.retry
	opts.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.logger.Warn("Groq call failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	start := time.Now()
	content, err := retry.Do(ctx, opts, func(ctx context.Context, attempt int) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if isPermanent(err) {
				return "", retry.Permanent(err)
			}
			return "", err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", ErrEmptyResponse
		}
		c.logger.Debug("Received response from Groq",
			zap.Int("attempt", attempt),
			zap.String("finish_reason", string(resp.Choices[0].FinishReason)))
		return resp.Choices[0].Message.Content, nil
	})
	metrics.ExternalAPIDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	metrics.ExternalAPICallsTotal.WithLabelValues(provider, metrics.Status(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("groq chat completion: %w", err)
	}
	return content, nil
}

// isPermanent treats client errors other than 408 and 429 as not worth retrying.
func isPermanent(err error) bool {
	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	default:
		return false
	}
	if code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
		return false
	}
	return code >= 400 && code < 500
}
