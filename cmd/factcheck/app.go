package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/config"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/graph"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/llm"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/search"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/server"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/storage"
)

var errPipelineNotConfigured = errors.New("GROQ_API_KEY and a search provider key are required to fact-check")

// app holds the wired services. Services whose keys are missing stay nil so
// the API can still serve the routes that do not need them.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	cache       *storage.Cache
	db          *sql.DB
	pg          *storage.PostgresFeedbackStore
	feedback    storage.FeedbackStore
	extractor   *claim.Extractor
	adjudicator *claim.Adjudicator
	retriever   *search.Retriever
	workflow    *graph.Workflow
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	a.cache = storage.NewCache(ctx, cfg.Redis, logger)

	groq, err := llm.NewGroqClient(cfg.Groq, logger)
	switch {
	case err == nil:
		a.extractor = claim.NewExtractor(groq, claim.ExtractorConfig{
			ChunkChars: cfg.ExtractChunkChars,
			MaxClaims:  cfg.MaxClaims,
		}, logger)
		a.adjudicator = claim.NewAdjudicator(groq, logger)
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("GROQ_API_KEY not set, claim extraction and verification are disabled")
	default:
		return nil, err
	}

	provider, err := newProvider(ctx, cfg, logger)
	switch {
	case err == nil:
		opts := []search.Option{search.WithLogger(logger), search.WithTimeout(cfg.RequestTimeout)}
		if a.cache.Enabled() {
			opts = append(opts, search.WithCache(a.cache, cfg.EvidenceCacheTTL))
		}
		a.retriever = search.NewRetriever(provider, cfg.Exa.MaxResults, opts...)
	case errors.Is(err, search.ErrNotConfigured):
		logger.Warn("search provider not configured, evidence retrieval is disabled",
			zap.String("provider", cfg.SearchProvider), zap.Error(err))
	default:
		return nil, err
	}

	if a.extractor != nil && a.retriever != nil {
		a.workflow = graph.New(a.extractor, a.retriever, a.adjudicator, graph.Config{
			MaxConcurrency:   cfg.MaxConcurrency,
			MinContentLength: cfg.MinContentLength,
		}, logger)
	}
	return a, nil
}

func newProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (search.Provider, error) {
	switch cfg.SearchProvider {
	case "exa", "":
		exa, err := search.NewExaClient(cfg.Exa, cfg.RequestTimeout, logger)
		if err != nil {
			return nil, err
		}
		return exa, nil
	case "google":
		g, err := search.NewGoogleClient(ctx, cfg.Google, cfg.Exa.MaxRetries, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown SEARCH_PROVIDER %q (want exa or google)", cfg.SearchProvider)
	}
}

// openFeedback uses Postgres when DATABASE_URL is set and falls back to
// logging feedback when it is not or the database is unreachable.
func (a *app) openFeedback(ctx context.Context) {
	if a.cfg.DatabaseURL == "" {
		a.feedback = storage.NewLogFeedbackStore(a.logger)
		return
	}
	db, err := storage.OpenDB(ctx, a.cfg.DatabaseURL, a.logger)
	if err == nil {
		var store *storage.PostgresFeedbackStore
		store, err = storage.NewPostgresFeedbackStore(ctx, db, a.logger)
		if err == nil {
			a.db = db
			a.pg = store
			a.feedback = store
			return
		}
		db.Close()
	}
	a.logger.Warn("Postgres unavailable, feedback will only be logged", zap.Error(err))
	a.feedback = storage.NewLogFeedbackStore(a.logger)
}

func (a *app) serverDeps() server.Deps {
	deps := server.Deps{
		Feedback: a.feedback,
		Favicons: server.NewFaviconProxy(a.cacheOrNil(), a.logger),
		Checks:   map[string]server.Pinger{"redis": nil, "postgres": nil},

		RequestTimeout: a.cfg.RequestTimeout,
	}
	if a.extractor != nil {
		deps.Extractor = a.extractor
	}
	if a.adjudicator != nil {
		deps.Adjudicator = a.adjudicator
	}
	if a.retriever != nil {
		deps.Retriever = a.retriever
	}
	if a.workflow != nil {
		deps.Pipeline = a.workflow
	}
	if a.cache.Enabled() {
		deps.Checks["redis"] = a.cache
	}
	if a.pg != nil {
		deps.Checks["postgres"] = a.pg
	}
	return deps
}

func (a *app) cacheOrNil() server.Cache {
	if a.cache.Enabled() {
		return a.cache
	}
	return nil
}

func (a *app) pipeline() (*graph.Workflow, error) {
	if a.workflow == nil {
		return nil, errPipelineNotConfigured
	}
	return a.workflow, nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("closing redis", zap.Error(err))
	}
	if a.db != nil {
		a.db.Close()
	}
}
