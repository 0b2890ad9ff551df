package claim

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCompleter struct {
	CompleteJSONFunc func(ctx context.Context, system, user string) (string, error)

	mu    sync.Mutex
	users []string
}

func (m *mockCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.users = append(m.users, user)
	m.mu.Unlock()
	return m.CompleteJSONFunc(ctx, system, user)
}

// =============================================================================
// Parsing
// =============================================================================

func TestParseClaims_Shapes(t *testing.T) {
	want := []Claim{{Claim: "Paris is in France", OriginalText: "Paris, France"}}

	cases := map[string]string{
		"array":  `[{"claim":"Paris is in France","original_text":"Paris, France"}]`,
		"object": `{"claims":[{"claim":"Paris is in France","original_text":"Paris, France"}]}`,
		"fenced": "```json\n[{\"claim\":\"Paris is in France\",\"original_text\":\"Paris, France\"}]\n```",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseClaims(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseClaims_SkipsBadItems(t *testing.T) {
	raw := `[
		{"claim":"  The Moon orbits Earth ","original_text":""},
		{"claim":"","original_text":"orphan"},
		"not an object",
		{"claim":"Water boils at 100C","original_text":"water boils at 100 degrees"}
	]`

	got, err := ParseClaims(raw)

	require.NoError(t, err)
	assert.Equal(t, []Claim{
		{Claim: "The Moon orbits Earth", OriginalText: "The Moon orbits Earth"},
		{Claim: "Water boils at 100C", OriginalText: "water boils at 100 degrees"},
	}, got)
}

func TestParseClaims_Invalid(t *testing.T) {
	for _, raw := range []string{
		"", "nonsense", `{"foo":1}`, `{"claims":"x"}`, `[1,`,
		`{"claim":"Paris is in France","original_text":"Paris, France"}`,
	} {
		_, err := ParseClaims(raw)
		assert.ErrorIs(t, err, ErrInvalidResponse, raw)
	}
}

func TestParseClaims_EmptyArray(t *testing.T) {
	got, err := ParseClaims("[]")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDedupe(t *testing.T) {
	in := []Claim{
		{Claim: "The sky is blue", OriginalText: "a"},
		{Claim: "the  SKY is blue", OriginalText: "b"},
		{Claim: "Grass is green", OriginalText: "c"},
	}
	assert.Equal(t, []Claim{in[0], in[2]}, Dedupe(in))
}

func TestParseVerdict(t *testing.T) {
	raw := "Here you go:\n" + `{"claim":"The sky is green","assessment":"False","summary":"The sky is blue.","fixed_original_text":"The sky is blue","confidence_score":92}` + "\nThanks"

	v, err := ParseVerdict(raw)

	require.NoError(t, err)
	assert.Equal(t, Verdict{
		Claim:             "The sky is green",
		Assessment:        AssessmentFalse,
		Summary:           "The sky is blue.",
		FixedOriginalText: "The sky is blue",
		ConfidenceScore:   92,
	}, v)
}

func TestParseVerdict_EmptyFixIsAllowed(t *testing.T) {
	v, err := ParseVerdict(`{"claim":"c","assessment":"True","summary":"s","fixed_original_text":"","confidence_score":0}`)
	require.NoError(t, err)
	assert.Equal(t, AssessmentTrue, v.Assessment)
	assert.Zero(t, v.ConfidenceScore)
}

func TestParseVerdict_Rejects(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want error
	}{
		"not json":          {"no object here", ErrInvalidResponse},
		"bad assessment":    {`{"claim":"c","assessment":"Maybe","summary":"s","fixed_original_text":"","confidence_score":50}`, ErrInvalidVerdict},
		"missing summary":   {`{"claim":"c","assessment":"True","fixed_original_text":"","confidence_score":50}`, ErrInvalidVerdict},
		"score too high":    {`{"claim":"c","assessment":"True","summary":"s","fixed_original_text":"","confidence_score":101}`, ErrInvalidVerdict},
		"score negative":    {`{"claim":"c","assessment":"True","summary":"s","fixed_original_text":"","confidence_score":-1}`, ErrInvalidVerdict},
		"missing score":     {`{"claim":"c","assessment":"True","summary":"s","fixed_original_text":""}`, ErrInvalidVerdict},
		"score is a string": {`{"claim":"c","assessment":"True","summary":"s","fixed_original_text":"","confidence_score":"high"}`, ErrInvalidResponse},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVerdict(tc.raw)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAssessmentLabel(t *testing.T) {
	assert.Equal(t, "Supported", AssessmentTrue.Label())
	assert.Equal(t, "Refuted", AssessmentFalse.Label())
	assert.Equal(t, "Insufficient Info", AssessmentInsufficient.Label())
	assert.False(t, Assessment("true").Valid())
}

func TestFormatSources(t *testing.T) {
	got := FormatSources([]Evidence{
		{Text: "one", URL: "https://a"},
		{Text: "two", URL: "https://b"},
	})
	assert.Equal(t, "Source 1:\nText: one\nURL: https://a\n\nSource 2:\nText: two\nURL: https://b", got)
}

// =============================================================================
// Extractor
// =============================================================================

func TestExtractor_EmptyContent(t *testing.T) {
	e := NewExtractor(&mockCompleter{}, ExtractorConfig{}, nil)
	_, err := e.Extract(context.Background(), " \n\t")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestExtractor_Extract(t *testing.T) {
	m := &mockCompleter{CompleteJSONFunc: func(ctx context.Context, system, user string) (string, error) {
		assert.Equal(t, extractSystemPrompt, system)
		return `[{"claim":"Paris is the capital of France","original_text":"Paris is the capital of France."}]`, nil
	}}
	e := NewExtractor(m, ExtractorConfig{}, nil)

	got, err := e.Extract(context.Background(), "Paris is the capital of France.")

	require.NoError(t, err)
	assert.Equal(t, []Claim{{Claim: "Paris is the capital of France", OriginalText: "Paris is the capital of France."}}, got)
	assert.Equal(t, []string{"Here is the content: Paris is the capital of France."}, m.users)
}

func TestExtractor_ChunksAndDedupes(t *testing.T) {
	content := "Paris is the capital of France.\n\nBerlin is the capital of Germany."
	m := &mockCompleter{CompleteJSONFunc: func(ctx context.Context, system, user string) (string, error) {
		if strings.Contains(user, "Berlin") {
			return `[{"claim":"Berlin is the capital of Germany","original_text":"Berlin"},{"claim":"paris is the capital of france","original_text":"x"}]`, nil
		}
		return `[{"claim":"Paris is the capital of France","original_text":"Paris"}]`, nil
	}}
	e := NewExtractor(m, ExtractorConfig{ChunkChars: 40}, nil)

	got, err := e.Extract(context.Background(), content)

	require.NoError(t, err)
	assert.Len(t, m.users, 2)
	assert.Equal(t, []Claim{
		{Claim: "Paris is the capital of France", OriginalText: "Paris"},
		{Claim: "Berlin is the capital of Germany", OriginalText: "Berlin"},
	}, got)
}

func TestExtractor_MaxClaims(t *testing.T) {
	m := &mockCompleter{CompleteJSONFunc: func(ctx context.Context, system, user string) (string, error) {
		return `[{"claim":"a","original_text":"a"},{"claim":"b","original_text":"b"},{"claim":"c","original_text":"c"}]`, nil
	}}
	got, err := NewExtractor(m, ExtractorConfig{MaxClaims: 2}, nil).Extract(context.Background(), "abc")

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExtractor_Errors(t *testing.T) {
	boom := errors.New("groq down")
	m := &mockCompleter{CompleteJSONFunc: func(ctx context.Context, system, user string) (string, error) {
		return "", boom
	}}
	_, err := NewExtractor(m, ExtractorConfig{}, nil).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, boom)

	m.CompleteJSONFunc = func(ctx context.Context, system, user string) (string, error) {
		return "I could not find claims.", nil
	}
	_, err = NewExtractor(m, ExtractorConfig{}, nil).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestExtractor_PartialChunkFailure(t *testing.T) {
	m := &mockCompleter{CompleteJSONFunc: func(ctx context.Context, system, user string) (string, error) {
		if strings.Contains(user, "Berlin") {
			return "", errors.New("rate limited")
		}
		return `[{"claim":"Paris is the capital of France","original_text":"Paris"}]`, nil
	}}
	e := NewExtractor(m, ExtractorConfig{ChunkChars: 40}, nil)

	got, err := e.Extract(context.Background(), "Paris is the capital of France.\n\nBerlin is the capital of Germany.")

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// =============================================================================
// Adjudicator
// =============================================================================

func TestAdjudicator_InvalidInput(t *testing.T) {
	a := NewAdjudicator(&mockCompleter{}, nil)
	src := []Evidence{{Text: "t", URL: "u"}}

	_, err := a.Adjudicate(context.Background(), Claim{Claim: "", OriginalText: "x"}, src)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = a.Adjudicate(context.Background(), Claim{Claim: "x", OriginalText: " "}, src)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = a.Adjudicate(context.Background(), Claim{Claim: "x", OriginalText: "x"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdjudicator_Adjudicate(t *testing.T) {
	c := Claim{Claim: "The Eiffel Tower is in Berlin", OriginalText: "the Eiffel Tower in Berlin"}
	src := []Evidence{{Text: "The Eiffel Tower is in Paris.", URL: "https://example.com/eiffel"}}
	m := &mockCompleter{CompleteJSONFunc: func(ctx context.Context, system, user string) (string, error) {
		assert.Equal(t, verifySystemPrompt, system)
		assert.Contains(t, user, "Source 1:\nText: The Eiffel Tower is in Paris.\nURL: https://example.com/eiffel")
		assert.Contains(t, user, "Here is the Original part of the text: the Eiffel Tower in Berlin")
		assert.True(t, strings.HasSuffix(user, "Here is the claim: The Eiffel Tower is in Berlin"))
		return `{"claim":"","assessment":"False","summary":"It is in Paris.","fixed_original_text":"the Eiffel Tower in Paris","confidence_score":97}`, nil
	}}

	v, err := NewAdjudicator(m, nil).Adjudicate(context.Background(), c, src)

	require.NoError(t, err)
	assert.Equal(t, c.Claim, v.Claim)
	assert.Equal(t, AssessmentFalse, v.Assessment)
	assert.Equal(t, "the Eiffel Tower in Paris", v.FixedOriginalText)
	assert.Equal(t, 97.0, v.ConfidenceScore)
}

func TestAdjudicator_RejectsInvalidVerdict(t *testing.T) {
	m := &mockCompleter{CompleteJSONFunc: func(ctx context.Context, system, user string) (string, error) {
		return `{"claim":"c","assessment":"Probably","summary":"s","fixed_original_text":"","confidence_score":50}`, nil
	}}
	_, err := NewAdjudicator(m, nil).Adjudicate(context.Background(),
		Claim{Claim: "c", OriginalText: "c"}, []Evidence{{Text: "t", URL: "u"}})
	assert.ErrorIs(t, err, ErrInvalidVerdict)
}
