package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/processing"
)

type Tone string

const (
	ToneWarn    Tone = "warn"
	ToneGood    Tone = "good"
	ToneNeutral Tone = "neutral"
)

type Summary struct {
	Total             int    `json:"total"`
	Supported         int    `json:"supported"`
	Refuted           int    `json:"refuted"`
	Insufficient      int    `json:"insufficient"`
	AverageConfidence int    `json:"average_confidence"`
	Tone              Tone   `json:"tone"`
	Headline          string `json:"headline"`
}

type Source struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

type Report struct {
	Results  []claim.Result `json:"results"`
	Failures []Failure      `json:"failures,omitempty"`
	Summary  Summary        `json:"summary"`
	Sources  []Source       `json:"sources"`
	Notes    []string       `json:"notes,omitempty"`
}

func answerNode(ctx context.Context, s *State) error {
	results := s.Results
	if results == nil {
		results = []claim.Result{}
	}
	s.Report = &Report{
		Results:  results,
		Failures: s.Failures,
		Summary:  Summarize(results),
		Sources:  Sources(results),
		Notes:    s.Notes,
	}
	return nil
}

// Summarize counts verdicts by assessment and derives the overall tone: any
// refuted claim needs attention, otherwise any supported claim looks
// supported.
func Summarize(results []claim.Result) Summary {
	sum := Summary{Total: len(results)}
	var conf float64
	for _, r := range results {
		switch r.Assessment {
		case claim.AssessmentTrue:
			sum.Supported++
		case claim.AssessmentFalse:
			sum.Refuted++
		case claim.AssessmentInsufficient:
			sum.Insufficient++
		}
		conf += r.ConfidenceScore
	}
	if len(results) > 0 {
		sum.AverageConfidence = int(math.Floor(conf/float64(len(results)) + 0.5))
	}

	switch {
	case sum.Refuted > 0:
		sum.Tone, sum.Headline = ToneWarn, "Needs attention"
	case sum.Supported > 0:
		sum.Tone, sum.Headline = ToneGood, "Looks supported"
	default:
		sum.Tone, sum.Headline = ToneNeutral, "Inconclusive"
	}
	return sum
}

// Sources lists each evidence URL once, in first-seen order.
func Sources(results []claim.Result) []Source {
	seen := make(map[string]struct{})
	out := []Source{}
	for _, r := range results {
		for _, u := range r.URLSources {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, Source{URL: u, Domain: Domain(u)})
		}
	}
	return out
}

// Domain returns the host of rawURL without a leading "www.", or rawURL
// itself when it does not parse.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

var ErrUnknownStatus = errors.New("unknown status filter")

// Filter keeps results matching status: all, true, false or insufficient.
func Filter(results []claim.Result, status string) ([]claim.Result, error) {
	var want claim.Assessment
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "all":
		return results, nil
	case "true":
		want = claim.AssessmentTrue
	case "false":
		want = claim.AssessmentFalse
	case "insufficient":
		want = claim.AssessmentInsufficient
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	out := make([]claim.Result, 0, len(results))
	for _, r := range results {
		if r.Assessment == want {
			out = append(out, r)
		}
	}
	return out, nil
}

// SortByConfidence returns a copy of results ordered by confidence. Ties keep
// their original order.
func SortByConfidence(results []claim.Result, desc bool) []claim.Result {
	out := append([]claim.Result(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].ConfidenceScore > out[j].ConfidenceScore
		}
		return out[i].ConfidenceScore < out[j].ConfidenceScore
	})
	return out
}

// Fixes returns the suggested corrections of refuted claims.
func Fixes(results []claim.Result) []processing.Fix {
	var fixes []processing.Fix
	for _, r := range results {
		if r.Assessment != claim.AssessmentFalse {
			continue
		}
		fixed := strings.TrimSpace(r.FixedOriginalText)
		if fixed == "" || fixed == r.OriginalText {
			continue
		}
		fixes = append(fixes, processing.Fix{Original: r.OriginalText, Fixed: fixed})
	}
	return fixes
}
