// Package claim extracts factual claims from text and adjudicates them
// against retrieved evidence using an LLM.
package claim

import "errors"

var (
	ErrEmptyContent    = errors.New("content is required")
	ErrInvalidInput    = errors.New("claim, original text and sources are required")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrInvalidVerdict  = errors.New("verdict failed validation")
)

// Claim is one verifiable statement and the span of text it came from.
type Claim struct {
	Claim        string `json:"claim"`
	OriginalText string `json:"original_text"`
}

// Evidence is a search result with non-empty text and URL.
type Evidence struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type Assessment string

const (
	AssessmentTrue         Assessment = "True"
	AssessmentFalse        Assessment = "False"
	AssessmentInsufficient Assessment = "Insufficient Information"
)

func (a Assessment) Valid() bool {
	switch a {
	case AssessmentTrue, AssessmentFalse, AssessmentInsufficient:
		return true
	}
	return false
}

// Label is the reader-facing name of the assessment.
func (a Assessment) Label() string {
	switch a {
	case AssessmentTrue:
		return "Supported"
	case AssessmentFalse:
		return "Refuted"
	default:
		return "Insufficient Info"
	}
}

// Verdict is the validated adjudication of a single claim.
type Verdict struct {
	Claim             string     `json:"claim"`
	Assessment        Assessment `json:"assessment"`
	Summary           string     `json:"summary"`
	FixedOriginalText string     `json:"fixed_original_text"`
	ConfidenceScore   float64    `json:"confidence_score"`
}

// Result is a verdict together with the text span it covers and the evidence
// URLs it was judged against.
type Result struct {
	Verdict
	OriginalText string   `json:"original_text"`
	URLSources   []string `json:"url_sources"`
}
