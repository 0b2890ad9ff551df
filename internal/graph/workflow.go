// Package graph runs the fact-check pipeline as a fixed sequence of nodes
// over a shared State.
package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
)

var ErrContentTooShort = errors.New("content is too short to fact-check")

type Extractor interface {
	Extract(ctx context.Context, content string) ([]claim.Claim, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, text string) ([]claim.Evidence, error)
}

type Adjudicator interface {
	Adjudicate(ctx context.Context, c claim.Claim, sources []claim.Evidence) (claim.Verdict, error)
}

type Stage string

const (
	StageSearch Stage = "search"
	StageVerify Stage = "verify"
)

// Failure records a claim that was dropped from the report.
type Failure struct {
	Claim string `json:"claim"`
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}

type State struct {
	Content  string
	Claims   []claim.Claim
	Results  []claim.Result
	Failures []Failure
	Notes    []string
	Report   *Report
}

type Config struct {
	MaxConcurrency   int
	MinContentLength int
}

type Workflow struct {
	extractor   Extractor
	retriever   Retriever
	adjudicator Adjudicator
	cfg         Config
	logger      *zap.Logger
}

func New(e Extractor, r Retriever, a Adjudicator, cfg Config, logger *zap.Logger) *Workflow {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{extractor: e, retriever: r, adjudicator: a, cfg: cfg, logger: logger}
}

// Run fact-checks content and returns the assembled report. Claims that fail
// to find evidence or to be verified are left out and listed as failures.
func (w *Workflow) Run(ctx context.Context, content string) (*Report, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < w.cfg.MinContentLength {
		return nil, fmt.Errorf("%w: %d characters, need at least %d", ErrContentTooShort, n, w.cfg.MinContentLength)
	}

	start := time.Now()
	s := &State{Content: content}
	nodes := []func(context.Context, *State) error{
		w.extractNode,
		w.checkNode,
		criticNode,
		answerNode,
	}
	for _, n := range nodes {
		if err := n(ctx, s); err != nil {
			return nil, err
		}
	}

	w.logger.Info("fact-check completed",
		zap.Int("claims", len(s.Claims)),
		zap.Int("results", len(s.Results)),
		zap.Int("failures", len(s.Failures)),
		zap.String("tone", string(s.Report.Summary.Tone)),
		zap.Duration("duration", time.Since(start)))
	return s.Report, nil
}

func (w *Workflow) extractNode(ctx context.Context, s *State) error {
	claims, err := w.extractor.Extract(ctx, s.Content)
	if err != nil {
		return fmt.Errorf("extracting claims: %w", err)
	}
	s.Claims = claims
	return nil
}
