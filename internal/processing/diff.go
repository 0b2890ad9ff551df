package processing

import (
	"regexp"
	"strings"
)

var spaceRun = regexp.MustCompile(`\s+`)

// Token is one word or whitespace run of a diffed text.
type Token struct {
	Text    string `json:"text"`
	Space   bool   `json:"space,omitempty"`
	Changed bool   `json:"changed,omitempty"`
}

// DiffWords is a light word diff: a word is marked changed when it does not
// occur anywhere on the other side. Whitespace is kept so the tokens join
// back to the input.
func DiffWords(original, fixed string) (before, after []Token) {
	origSet := wordSet(original)
	fixedSet := wordSet(fixed)
	return tokens(original, fixedSet), tokens(fixed, origSet)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func tokens(s string, other map[string]struct{}) []Token {
	var out []Token
	last := 0
	for _, loc := range spaceRun.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			out = append(out, word(s[last:loc[0]], other))
		}
		out = append(out, Token{Text: s[loc[0]:loc[1]], Space: true})
		last = loc[1]
	}
	if last < len(s) {
		out = append(out, word(s[last:], other))
	}
	return out
}

func word(w string, other map[string]struct{}) Token {
	_, shared := other[w]
	return Token{Text: w, Changed: !shared}
}

// Render joins tokens, wrapping changed words in open and close.
func Render(ts []Token, open, close string) string {
	var b strings.Builder
	for _, t := range ts {
		if t.Changed {
			b.WriteString(open)
			b.WriteString(t.Text)
			b.WriteString(close)
			continue
		}
		b.WriteString(t.Text)
	}
	return b.String()
}
