package claim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// stripFences returns the body of the first ```json block, or s trimmed.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if m := fencePattern.FindStringSubmatch(s); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return s
}

type rawClaim struct {
	Claim        string `json:"claim"`
	OriginalText string `json:"original_text"`
}

// ParseClaims decodes an extraction response. The payload must be a JSON
// array of {claim, original_text}, optionally wrapped in an object under
// "claims" or in a markdown fence. Malformed items are skipped.
func ParseClaims(raw string) ([]Claim, error) {
	body := []byte(stripFences(raw))
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		inner, ok := obj["claims"]
		if !ok {
			return nil, fmt.Errorf("%w: expected array", ErrInvalidResponse)
		}
		if err := json.Unmarshal(bytes.TrimSpace(inner), &items); err != nil {
			return nil, fmt.Errorf("%w: claims is not an array", ErrInvalidResponse)
		}
	default:
		return nil, fmt.Errorf("%w: expected array", ErrInvalidResponse)
	}

	claims := make([]Claim, 0, len(items))
	for _, item := range items {
		var rc rawClaim
		if err := json.Unmarshal(item, &rc); err != nil {
			continue
		}
		c := Claim{
			Claim:        strings.TrimSpace(rc.Claim),
			OriginalText: strings.TrimSpace(rc.OriginalText),
		}
		if c.Claim == "" {
			continue
		}
		if c.OriginalText == "" {
			c.OriginalText = c.Claim
		}
		claims = append(claims, c)
	}
	return claims, nil
}

// Dedupe keeps the first occurrence of each claim, comparing
// case-insensitively with whitespace collapsed.
func Dedupe(claims []Claim) []Claim {
	seen := make(map[string]struct{}, len(claims))
	out := make([]Claim, 0, len(claims))
	for _, c := range claims {
		key := strings.ToLower(strings.Join(strings.Fields(c.Claim), " "))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// rawVerdict uses pointers so that absent fields fail "required" while empty
// strings are still accepted.
type rawVerdict struct {
	Claim             *string  `json:"claim" validate:"required"`
	Assessment        *string  `json:"assessment" validate:"required,assessment"`
	Summary           *string  `json:"summary" validate:"required"`
	FixedOriginalText *string  `json:"fixed_original_text" validate:"required"`
	ConfidenceScore   *float64 `json:"confidence_score" validate:"required,gte=0,lte=100"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("assessment", func(fl validator.FieldLevel) bool {
		return Assessment(fl.Field().String()).Valid()
	})
	return v
}

var verdictValidator = newValidator()

// ParseVerdict decodes and validates an adjudication response.
func ParseVerdict(raw string) (Verdict, error) {
	body := stripFences(raw)

	var rv rawVerdict
	if err := json.Unmarshal([]byte(body), &rv); err != nil {
		start := strings.Index(body, "{")
		end := strings.LastIndex(body, "}")
		if start < 0 || end <= start {
			return Verdict{}, fmt.Errorf("%w: no JSON object found", ErrInvalidResponse)
		}
		rv = rawVerdict{}
		if err := json.Unmarshal([]byte(body[start:end+1]), &rv); err != nil {
			return Verdict{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	if err := verdictValidator.Struct(rv); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
	}

	return Verdict{
		Claim:             strings.TrimSpace(*rv.Claim),
		Assessment:        Assessment(*rv.Assessment),
		Summary:           strings.TrimSpace(*rv.Summary),
		FixedOriginalText: strings.TrimSpace(*rv.FixedOriginalText),
		ConfidenceScore:   *rv.ConfidenceScore,
	}, nil
}
