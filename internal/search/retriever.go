package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/logging"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/metrics"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/storage"
)

// Cache is the subset of storage.Cache the retriever needs.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Retriever looks up evidence for a claim and keeps only results with both
// text and URL. Lookups are cached and concurrent identical lookups share
// one provider call.
type Retriever struct {
	provider   Provider
	maxResults int
	cache      Cache
	ttl        time.Duration
	timeout    time.Duration
	group      singleflight.Group
	logger     *zap.Logger

	// called once a caller is registered with the in-flight lookup
	onWait func()
}

type Option func(*Retriever)

func WithCache(c Cache, ttl time.Duration) Option {
	return func(r *Retriever) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithTimeout bounds a shared provider lookup. The lookup does not stop when
// the caller that started it goes away, so other callers can still use it.
func WithTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

func NewRetriever(p Provider, maxResults int, opts ...Option) *Retriever {
	if maxResults < 1 {
		maxResults = 3
	}
	r := &Retriever{provider: p, maxResults: maxResults, timeout: time.Minute, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Retriever) Provider() string {
	if r.provider == nil {
		return ""
	}
	return r.provider.Name()
}

// Retrieve returns at most maxResults evidence items for text.
func (r *Retriever) Retrieve(ctx context.Context, text string) ([]claim.Evidence, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyClaim
	}
	if r.provider == nil {
		return nil, ErrNotConfigured
	}

	key := r.cacheKey(text)
	if r.cache != nil {
		var cached []claim.Evidence
		err := r.cache.Get(ctx, key, &cached)
		if err == nil && len(cached) > 0 {
			metrics.CacheHitsTotal.WithLabelValues("evidence").Inc()
			return cached, nil
		}
		if err != nil && !errors.Is(err, storage.ErrCacheMiss) {
			r.logger.Warn("evidence cache read failed", zap.Error(err))
		}
		metrics.CacheMissesTotal.WithLabelValues("evidence").Inc()
	}

	ch := r.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.lookup(lctx, key, text)
	})
	if r.onWait != nil {
		r.onWait()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		results := res.Val.([]claim.Evidence)
		if res.Shared {
			results = append([]claim.Evidence(nil), results...)
		}
		return results, nil
	}
}

func (r *Retriever) lookup(ctx context.Context, key, text string) ([]claim.Evidence, error) {
	start := time.Now()
	raw, err := r.provider.Search(ctx, text, r.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", r.provider.Name(), err)
	}

	results := Filter(raw, r.maxResults)
	r.logger.Info("search completed",
		zap.String("provider", r.provider.Name()),
		zap.String("claim", logging.Truncate(text, 80)),
		zap.Int("claim_length", len(text)),
		zap.Int("result_count", len(results)),
		zap.Duration("duration", time.Since(start)))

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, results, r.ttl); err != nil {
			r.logger.Warn("failed to cache evidence", zap.Error(err))
		}
	}
	return results, nil
}

func (r *Retriever) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d\x00%s", r.maxResults, text)))
	return "evidence:" + r.provider.Name() + ":" + hex.EncodeToString(sum[:])
}

// Filter trims text and URL of every item, drops items missing either and
// keeps at most limit items in order.
func Filter(items []claim.Evidence, limit int) []claim.Evidence {
	out := make([]claim.Evidence, 0, len(items))
	for _, it := range items {
		e := claim.Evidence{Text: strings.TrimSpace(it.Text), URL: strings.TrimSpace(it.URL)}
		if e.Text == "" || e.URL == "" {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
