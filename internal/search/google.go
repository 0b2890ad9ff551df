package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/config"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/metrics"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/retry"
)

// Custom Search returns at most ten items per page.
const googleMaxNum = 10

// GoogleClient searches with the Google Custom Search JSON API. Snippets
// stand in for page text.
type GoogleClient struct {
	svc      *customsearch.Service
	engineID string
	retry    retry.Options
	logger   *zap.Logger
}

func NewGoogleClient(ctx context.Context, cfg config.Google, retries int, logger *zap.Logger, opts ...option.ClientOption) (*GoogleClient, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY and GOOGLE_CSE_ID are required", ErrNotConfigured)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search service: %w", err)
	}
	return &GoogleClient{
		svc:      svc,
		engineID: cfg.EngineID,
		retry:    retry.WithRetries(retries),
		logger:   logger,
	}, nil
}

func (g *GoogleClient) Name() string { return "google" }

func (g *GoogleClient) Search(ctx context.Context, query string, limit int) ([]claim.Evidence, error) {
	if limit > googleMaxNum {
		limit = googleMaxNum
	}

	opts := g.retry
	opts.OnRetry = func(attempt int, wait time.Duration, err error) {
		g.logger.Warn("Google search failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	start := time.Now()
	res, err := retry.Do(ctx, opts, func(ctx context.Context, attempt int) (*customsearch.Search, error) {
		res, err := g.svc.Cse.List().Cx(g.engineID).Q(query).Num(int64(limit)).Context(ctx).Do()
		if err != nil {
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && !retryableStatus(gerr.Code) {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}
		return res, nil
	})
	metrics.ExternalAPIDuration.WithLabelValues("google").Observe(time.Since(start).Seconds())
	metrics.ExternalAPICallsTotal.WithLabelValues("google", metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("google custom search: %w", err)
	}

	out := make([]claim.Evidence, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil {
			continue
		}
		out = append(out, claim.Evidence{Text: item.Snippet, URL: item.Link})
	}
	return out, nil
}
