package graph

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/logging"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/metrics"
)

// checkNode retrieves evidence for and adjudicates every claim, at most
// MaxConcurrency at a time. Results keep extraction order.
func (w *Workflow) checkNode(ctx context.Context, s *State) error {
	if len(s.Claims) == 0 {
		return nil
	}

	slots := make([]*claim.Result, len(s.Claims))
	var (
		mu       sync.Mutex
		failures []indexedFailure
	)
	fail := func(i int, c claim.Claim, stage Stage, err error) {
		metrics.ClaimFailuresTotal.WithLabelValues(string(stage)).Inc()
		w.logger.Warn("claim dropped",
			zap.String("claim", logging.Truncate(c.Claim, 80)),
			zap.String("stage", string(stage)),
			zap.Error(err))
		mu.Lock()
		failures = append(failures, indexedFailure{i, Failure{Claim: c.Claim, Stage: stage, Error: err.Error()}})
		mu.Unlock()
	}

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(w.cfg.MaxConcurrency)
	for i, c := range s.Claims {
		i, c := i, c
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			sources, err := w.retriever.Retrieve(ctx, c.Claim)
			if err != nil {
				fail(i, c, StageSearch, err)
				return nil
			}
			v, err := w.adjudicator.Adjudicate(ctx, c, sources)
			if err != nil {
				fail(i, c, StageVerify, err)
				return nil
			}
			metrics.ClaimsCheckedTotal.WithLabelValues(string(v.Assessment)).Inc()

			urls := make([]string, len(sources))
			for j, src := range sources {
				urls[j] = src.URL
			}
			slots[i] = &claim.Result{Verdict: v, OriginalText: c.OriginalText, URLSources: urls}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Results = make([]claim.Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			s.Results = append(s.Results, *r)
		}
	}
	s.Failures = orderFailures(failures, len(s.Claims))

	w.logger.Debug("claims checked",
		zap.Int("claims", len(s.Claims)),
		zap.Int("verified", len(s.Results)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

type indexedFailure struct {
	index int
	Failure
}

func orderFailures(in []indexedFailure, n int) []Failure {
	if len(in) == 0 {
		return nil
	}
	byIndex := make([]*Failure, n)
	for i := range in {
		byIndex[in[i].index] = &in[i].Failure
	}
	out := make([]Failure, 0, len(in))
	for _, f := range byIndex {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}
