// Package search retrieves web evidence for claims from Exa or Google
// Custom Search.
package search

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
)

var (
	ErrEmptyClaim      = errors.New("claim cannot be empty")
	ErrNotConfigured   = errors.New("search provider is not configured")
	ErrNoResults       = errors.New("no supporting sources found")
	ErrInvalidResponse = errors.New("received invalid data from search provider")
)

// Provider runs one web search. Results may contain empty text or URLs;
// the Retriever filters them.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]claim.Evidence, error)
}

// retryableStatus reports whether an HTTP status from a provider is worth
// another attempt.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
