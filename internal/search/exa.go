package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/config"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/metrics"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/retry"
)

const exaQuerySuffix = "\n\nHere is a web page to help verify this content:"

// exa request body
type exaRequest struct {
	Query      string      `json:"query"`
	Type       string      `json:"type"`
	NumResults int         `json:"numResults"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Text      bool   `json:"text"`
	Livecrawl string `json:"livecrawl"`
}

// Exa results may carry null text or url.
type exaResponse struct {
	Results []struct {
		Text *string `json:"text"`
		URL  *string `json:"url"`
	} `json:"results"`
}

type ExaClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retry      retry.Options
	logger     *zap.Logger
}

// NewExaClient returns a client for Exa's /search endpoint. The API key is
// sent as a bearer token by an oauth2 transport and as x-api-key.
func NewExaClient(cfg config.Exa, timeout time.Duration, logger *zap.Logger) (*ExaClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: EXA_API_KEY is not configured", ErrNotConfigured)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultExaBaseURL
	}
	return &ExaClient{
		httpClient: oauth2.NewClient(ctx, ts),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		retry:      retry.WithRetries(cfg.MaxRetries),
		logger:     logger,
	}, nil
}

func (e *ExaClient) Name() string { return "exa" }

// Search asks Exa for pages with text content that help verify query.
// Results come back in reverse rank order.
func (e *ExaClient) Search(ctx context.Context, query string, limit int) ([]claim.Evidence, error) {
	body, err := json.Marshal(exaRequest{
		Query:      query + exaQuerySuffix,
		Type:       "auto",
		NumResults: limit,
		Contents:   exaContents{Text: true, Livecrawl: "always"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal exa request: %w", err)
	}

	opts := e.retry
	opts.OnRetry = func(attempt int, wait time.Duration, err error) {
		e.logger.Warn("Exa search failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	start := time.Now()
	parsed, err := retry.Do(ctx, opts, func(ctx context.Context, attempt int) (*exaResponse, error) {
		return e.do(ctx, body)
	})
	metrics.ExternalAPIDuration.WithLabelValues("exa").Observe(time.Since(start).Seconds())
	metrics.ExternalAPICallsTotal.WithLabelValues("exa", metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}

	out := make([]claim.Evidence, 0, len(parsed.Results))
	for i := len(parsed.Results) - 1; i >= 0; i-- {
		r := parsed.Results[i]
		out = append(out, claim.Evidence{Text: deref(r.Text), URL: deref(r.URL)})
	}
	return out, nil
}

func (e *ExaClient) do(ctx context.Context, body []byte) (*exaResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("creating exa request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling exa: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading exa response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("exa returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		if retryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}

	var parsed exaResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	return &parsed, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
