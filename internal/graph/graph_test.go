package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/claim"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/processing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errNoEvidence = errors.New("no search results found")

const longContent = "The Eiffel Tower is in Berlin. Water boils at 100 degrees Celsius at sea level. The Moon is made of cheese."

type mockExtractor struct {
	ExtractFunc func(ctx context.Context, content string) ([]claim.Claim, error)
}

func (m *mockExtractor) Extract(ctx context.Context, content string) ([]claim.Claim, error) {
	return m.ExtractFunc(ctx, content)
}

type mockRetriever struct {
	RetrieveFunc func(ctx context.Context, text string) ([]claim.Evidence, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, text string) ([]claim.Evidence, error) {
	return m.RetrieveFunc(ctx, text)
}

type mockAdjudicator struct {
	AdjudicateFunc func(ctx context.Context, c claim.Claim, sources []claim.Evidence) (claim.Verdict, error)
}

func (m *mockAdjudicator) Adjudicate(ctx context.Context, c claim.Claim, sources []claim.Evidence) (claim.Verdict, error) {
	return m.AdjudicateFunc(ctx, c, sources)
}

func threeClaims(ctx context.Context, content string) ([]claim.Claim, error) {
	return []claim.Claim{
		{Claim: "The Eiffel Tower is in Berlin", OriginalText: "The Eiffel Tower is in Berlin"},
		{Claim: "Water boils at 100C at sea level", OriginalText: "Water boils at 100 degrees Celsius at sea level"},
		{Claim: "The Moon is made of cheese", OriginalText: "The Moon is made of cheese"},
	}, nil
}

func evidenceFor(ctx context.Context, text string) ([]claim.Evidence, error) {
	slug := strings.ToLower(strings.Fields(text)[1])
	return []claim.Evidence{
		{Text: "about " + slug, URL: "https://www." + slug + ".example/a"},
		{Text: "shared", URL: "https://shared.example/page"},
	}, nil
}

func TestRun_ContentTooShort(t *testing.T) {
	w := New(&mockExtractor{}, &mockRetriever{}, &mockAdjudicator{}, Config{MinContentLength: 50}, nil)

	_, err := w.Run(context.Background(), "   too short   ")

	assert.ErrorIs(t, err, ErrContentTooShort)
}

func TestRun_ExtractionFailureFailsRun(t *testing.T) {
	boom := errors.New("groq down")
	w := New(&mockExtractor{ExtractFunc: func(ctx context.Context, content string) ([]claim.Claim, error) {
		return nil, boom
	}}, &mockRetriever{}, &mockAdjudicator{}, Config{}, nil)

	_, err := w.Run(context.Background(), longContent)

	assert.ErrorIs(t, err, boom)
}

func TestRun_NoClaims(t *testing.T) {
	w := New(&mockExtractor{ExtractFunc: func(ctx context.Context, content string) ([]claim.Claim, error) {
		return nil, nil
	}}, &mockRetriever{}, &mockAdjudicator{}, Config{}, nil)

	report, err := w.Run(context.Background(), longContent)

	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.NotNil(t, report.Results)
	assert.Equal(t, ToneNeutral, report.Summary.Tone)
	assert.Equal(t, []string{"No verifiable claims were found in the content."}, report.Notes)
}

func TestRun_SwallowsPerClaimFailures(t *testing.T) {
	retriever := &mockRetriever{RetrieveFunc: func(ctx context.Context, text string) ([]claim.Evidence, error) {
		if strings.HasPrefix(text, "Water") {
			return nil, errNoEvidence
		}
		return evidenceFor(ctx, text)
	}}
	adjudicator := &mockAdjudicator{AdjudicateFunc: func(ctx context.Context, c claim.Claim, sources []claim.Evidence) (claim.Verdict, error) {
		if strings.Contains(c.Claim, "Moon") {
			return claim.Verdict{}, claim.ErrInvalidVerdict
		}
		return claim.Verdict{
			Claim:             c.Claim,
			Assessment:        claim.AssessmentFalse,
			Summary:           "It is in Paris.",
			FixedOriginalText: "The Eiffel Tower is in Paris",
			ConfidenceScore:   95,
		}, nil
	}}
	w := New(&mockExtractor{ExtractFunc: threeClaims}, retriever, adjudicator, Config{MaxConcurrency: 3, MinContentLength: 50}, nil)

	report, err := w.Run(context.Background(), longContent)

	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	r := report.Results[0]
	assert.Equal(t, "The Eiffel Tower is in Berlin", r.Claim)
	assert.Equal(t, "The Eiffel Tower is in Berlin", r.OriginalText)
	assert.Equal(t, []string{"https://www.eiffel.example/a", "https://shared.example/page"}, r.URLSources)

	assert.Equal(t, []Failure{
		{Claim: "Water boils at 100C at sea level", Stage: StageSearch, Error: errNoEvidence.Error()},
		{Claim: "The Moon is made of cheese", Stage: StageVerify, Error: claim.ErrInvalidVerdict.Error()},
	}, report.Failures)
	assert.Equal(t, Summary{Total: 1, Refuted: 1, AverageConfidence: 95, Tone: ToneWarn, Headline: "Needs attention"}, report.Summary)
	assert.Contains(t, report.Notes, "2 of 3 claims could not be checked.")
}

func TestRun_KeepsExtractionOrder(t *testing.T) {
	// Earlier claims finish last.
	delays := map[string]time.Duration{
		"The Eiffel Tower is in Berlin":    30 * time.Millisecond,
		"Water boils at 100C at sea level": 15 * time.Millisecond,
		"The Moon is made of cheese":       0,
	}
	adjudicator := &mockAdjudicator{AdjudicateFunc: func(ctx context.Context, c claim.Claim, sources []claim.Evidence) (claim.Verdict, error) {
		time.Sleep(delays[c.Claim])
		return claim.Verdict{Claim: c.Claim, Assessment: claim.AssessmentTrue, ConfidenceScore: 80}, nil
	}}
	w := New(&mockExtractor{ExtractFunc: threeClaims}, &mockRetriever{RetrieveFunc: evidenceFor}, adjudicator, Config{MaxConcurrency: 3}, nil)

	report, err := w.Run(context.Background(), longContent)

	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "The Eiffel Tower is in Berlin", report.Results[0].Claim)
	assert.Equal(t, "Water boils at 100C at sea level", report.Results[1].Claim)
	assert.Equal(t, "The Moon is made of cheese", report.Results[2].Claim)
	assert.Equal(t, ToneGood, report.Summary.Tone)
	assert.Len(t, report.Sources, 4)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	retriever := &mockRetriever{RetrieveFunc: func(ctx context.Context, text string) ([]claim.Evidence, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return evidenceFor(ctx, text)
	}}
	extractor := &mockExtractor{ExtractFunc: func(ctx context.Context, content string) ([]claim.Claim, error) {
		var cs []claim.Claim
		for _, w := range []string{"a one", "b two", "c three", "d four", "e five", "f six"} {
			cs = append(cs, claim.Claim{Claim: w, OriginalText: w})
		}
		return cs, nil
	}}
	adjudicator := &mockAdjudicator{AdjudicateFunc: func(ctx context.Context, c claim.Claim, sources []claim.Evidence) (claim.Verdict, error) {
		return claim.Verdict{Claim: c.Claim, Assessment: claim.AssessmentInsufficient, ConfidenceScore: 40}, nil
	}}
	w := New(extractor, retriever, adjudicator, Config{MaxConcurrency: 2}, nil)

	report, err := w.Run(context.Background(), longContent)

	require.NoError(t, err)
	assert.Len(t, report.Results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Contains(t, report.Notes, "6 verdicts have confidence below 50%; review their sources.")
}

func TestRun_CancelledContextFailsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	retriever := &mockRetriever{RetrieveFunc: func(rctx context.Context, text string) ([]claim.Evidence, error) {
		once.Do(cancel)
		return nil, rctx.Err()
	}}
	w := New(&mockExtractor{ExtractFunc: threeClaims}, retriever, &mockAdjudicator{}, Config{MaxConcurrency: 1}, nil)

	_, err := w.Run(ctx, longContent)

	assert.ErrorIs(t, err, context.Canceled)
}

func result(a claim.Assessment, conf float64, urls ...string) claim.Result {
	return claim.Result{Verdict: claim.Verdict{Assessment: a, ConfidenceScore: conf}, URLSources: urls}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		name     string
		results  []claim.Result
		tone     Tone
		headline string
		avg      int
	}{
		{"empty", nil, ToneNeutral, "Inconclusive", 0},
		{"refuted wins", []claim.Result{result(claim.AssessmentTrue, 90), result(claim.AssessmentFalse, 85)}, ToneWarn, "Needs attention", 88},
		{"supported", []claim.Result{result(claim.AssessmentTrue, 70), result(claim.AssessmentInsufficient, 20)}, ToneGood, "Looks supported", 45},
		{"insufficient only", []claim.Result{result(claim.AssessmentInsufficient, 33)}, ToneNeutral, "Inconclusive", 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(tc.results)
			assert.Equal(t, tc.tone, s.Tone)
			assert.Equal(t, tc.headline, s.Headline)
			assert.Equal(t, tc.avg, s.AverageConfidence)
			assert.Equal(t, len(tc.results), s.Total)
		})
	}
}

func TestSources(t *testing.T) {
	got := Sources([]claim.Result{
		result(claim.AssessmentTrue, 1, "https://www.nasa.gov/moon", "https://en.wikipedia.org/wiki/Moon"),
		result(claim.AssessmentTrue, 1, "https://www.nasa.gov/moon", "not a url"),
	})

	assert.Equal(t, []Source{
		{URL: "https://www.nasa.gov/moon", Domain: "nasa.gov"},
		{URL: "https://en.wikipedia.org/wiki/Moon", Domain: "en.wikipedia.org"},
		{URL: "not a url", Domain: "not a url"},
	}, got)
}

func TestFilterAndSort(t *testing.T) {
	rs := []claim.Result{
		result(claim.AssessmentTrue, 60),
		result(claim.AssessmentFalse, 90),
		result(claim.AssessmentInsufficient, 10),
		result(claim.AssessmentFalse, 30),
	}

	all, err := Filter(rs, "all")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	refuted, err := Filter(rs, "FALSE")
	require.NoError(t, err)
	assert.Equal(t, []claim.Result{rs[1], rs[3]}, refuted)

	insufficient, err := Filter(rs, "insufficient")
	require.NoError(t, err)
	assert.Equal(t, []claim.Result{rs[2]}, insufficient)

	_, err = Filter(rs, "maybe")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	desc := SortByConfidence(rs, true)
	assert.Equal(t, []float64{90, 60, 30, 10}, confidences(desc))
	asc := SortByConfidence(rs, false)
	assert.Equal(t, []float64{10, 30, 60, 90}, confidences(asc))
	assert.Equal(t, 60.0, rs[0].ConfidenceScore, "input is not reordered")
}

func confidences(rs []claim.Result) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.ConfidenceScore
	}
	return out
}

func TestFixes(t *testing.T) {
	rs := []claim.Result{
		{Verdict: claim.Verdict{Assessment: claim.AssessmentFalse, FixedOriginalText: "in Paris"}, OriginalText: "in Berlin"},
		{Verdict: claim.Verdict{Assessment: claim.AssessmentFalse, FixedOriginalText: ""}, OriginalText: "no fix"},
		{Verdict: claim.Verdict{Assessment: claim.AssessmentFalse, FixedOriginalText: "same"}, OriginalText: "same"},
		{Verdict: claim.Verdict{Assessment: claim.AssessmentTrue, FixedOriginalText: "other"}, OriginalText: "true claim"},
	}

	fixes := Fixes(rs)

	assert.Equal(t, []processing.Fix{{Original: "in Berlin", Fixed: "in Paris"}}, fixes)
	doc, n := processing.ApplyFixes("The tower stands in Berlin.", fixes)
	assert.Equal(t, 1, n)
	assert.Equal(t, "The tower stands in Paris.", doc)
}
