// Package server exposes the fact-check pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/graph"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/storage"
)

const maxBodyBytes = 1 << 20

// Pipeline runs a full fact-check of one document.
type Pipeline interface {
	Run(ctx context.Context, content string) (*graph.Report, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API. Extractor, Retriever, Adjudicator
// and Pipeline may be nil when their API keys are missing; the matching
// routes then answer 500.
type Deps struct {
	Extractor   graph.Extractor
	Retriever   graph.Retriever
	Adjudicator graph.Adjudicator
	Pipeline    Pipeline
	Feedback    storage.FeedbackStore
	Favicons    *FaviconProxy
	// Health checks by name, e.g. "redis" or "postgres". A nil Pinger is
	// reported as disabled.
	Checks map[string]Pinger
	// RequestTimeout bounds each /api request. Zero means no limit.
	RequestTimeout time.Duration
}

type Server struct {
	deps     Deps
	validate *validator.Validate
	logger   *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Feedback == nil {
		deps.Feedback = storage.NewLogFeedbackStore(logger)
	}
	return &Server{
		deps:     deps,
		validate: newValidator(),
		logger:   logger,
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestID, s.instrument)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.deadline)
	api.HandleFunc("/extractclaims", s.handleExtractClaims).Methods("POST")
	api.HandleFunc("/exasearch", s.handleSearch).Methods("POST")
	api.HandleFunc("/verifyclaims", s.handleVerifyClaims).Methods("POST")
	api.HandleFunc("/factcheck", s.handleFactCheck).Methods("POST")
	api.HandleFunc("/favicon", s.handleFavicon).Methods("GET")
	api.HandleFunc("/feedback", s.handleFeedback).Methods("POST")

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// with a 30 second timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Fact-check API starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("Server exited")
	return nil
}
