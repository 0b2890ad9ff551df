package claim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/llm"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/logging"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/processing"
)

const chunkOverlap = 200

// Extractor turns free text into a list of verifiable claims.
type Extractor struct {
	llm        llm.Completer
	chunkChars int
	maxClaims  int
	logger     *zap.Logger
}

// ExtractorConfig bounds the work done per document. Zero values disable
// chunking and the claim cap.
type ExtractorConfig struct {
	ChunkChars int
	MaxClaims  int
}

func NewExtractor(c llm.Completer, cfg ExtractorConfig, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{llm: c, chunkChars: cfg.ChunkChars, maxClaims: cfg.MaxClaims, logger: logger}
}

// Extract asks the model for the claims in content. Long content is split
// into chunks that are extracted one after another; claims repeated across
// chunks are kept once. A chunk that fails is skipped unless every chunk
// fails.
func (e *Extractor) Extract(ctx context.Context, content string) ([]Claim, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	chunks := processing.ChunkText(content, e.chunkChars, chunkOverlap)
	start := time.Now()

	var (
		all     []Claim
		lastErr error
		ok      int
	)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		claims, err := e.extractChunk(ctx, chunk)
		if err != nil {
			lastErr = err
			e.logger.Warn("claim extraction failed for chunk",
				zap.Int("chunk", i), zap.Int("chunks", len(chunks)), zap.Error(err))
			continue
		}
		ok++
		all = append(all, claims...)
	}
	if ok == 0 {
		return nil, lastErr
	}

	all = Dedupe(all)
	if e.maxClaims > 0 && len(all) > e.maxClaims {
		all = all[:e.maxClaims]
	}

	e.logger.Info("claims extracted",
		zap.Int("content_length", len(content)),
		zap.Int("chunks", len(chunks)),
		zap.Int("claim_count", len(all)),
		zap.Duration("duration", time.Since(start)))
	return all, nil
}

func (e *Extractor) extractChunk(ctx context.Context, chunk string) ([]Claim, error) {
	raw, err := e.llm.CompleteJSON(ctx, extractSystemPrompt, extractUserPrompt(chunk))
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}
	claims, err := ParseClaims(raw)
	if err != nil {
		e.logger.Debug("unparseable extraction response", zap.String("raw", logging.Truncate(raw, 200)))
		return nil, err
	}
	return claims, nil
}
