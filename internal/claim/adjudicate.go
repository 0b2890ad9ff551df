package claim

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/llm"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/logging"
)

// Adjudicator judges a claim against its evidence.
type Adjudicator struct {
	llm    llm.Completer
	logger *zap.Logger
}

func NewAdjudicator(c llm.Completer, logger *zap.Logger) *Adjudicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adjudicator{llm: c, logger: logger}
}

// Adjudicate returns a validated verdict for c. Sources must be non-empty.
func (a *Adjudicator) Adjudicate(ctx context.Context, c Claim, sources []Evidence) (Verdict, error) {
	c.Claim = strings.TrimSpace(c.Claim)
	c.OriginalText = strings.TrimSpace(c.OriginalText)
	if c.Claim == "" || c.OriginalText == "" || len(sources) == 0 {
		return Verdict{}, ErrInvalidInput
	}

	raw, err := a.llm.CompleteJSON(ctx, verifySystemPrompt, verifyUserPrompt(c, sources))
	if err != nil {
		return Verdict{}, fmt.Errorf("verify claim: %w", err)
	}

	v, err := ParseVerdict(raw)
	if err != nil {
		a.logger.Debug("unusable verdict",
			zap.String("claim", logging.Truncate(c.Claim, 80)),
			zap.String("raw", logging.Truncate(raw, 200)),
			zap.Error(err))
		return Verdict{}, err
	}
	if v.Claim == "" {
		v.Claim = c.Claim
	}

	a.logger.Debug("claim adjudicated",
		zap.String("claim", logging.Truncate(v.Claim, 80)),
		zap.String("assessment", string(v.Assessment)),
		zap.Float64("confidence", v.ConfidenceScore))
	return v, nil
}
