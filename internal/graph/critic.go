package graph

import (
	"context"
	"fmt"
)

const lowConfidence = 50

// criticNode adds reader-facing notes about how complete the check was.
func criticNode(ctx context.Context, s *State) error {
	if len(s.Claims) == 0 {
		s.Notes = append(s.Notes, "No verifiable claims were found in the content.")
		return nil
	}
	if n := len(s.Failures); n > 0 {
		s.Notes = append(s.Notes, fmt.Sprintf("%d of %d claims could not be checked.", n, len(s.Claims)))
	}

	low := 0
	for _, r := range s.Results {
		if r.ConfidenceScore < lowConfidence {
			low++
		}
	}
	if low > 0 {
		s.Notes = append(s.Notes, fmt.Sprintf("%d verdicts have confidence below %d%%; review their sources.", low, lowConfidence))
	}
	return nil
}
