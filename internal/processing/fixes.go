package processing

import "strings"

// Fix replaces Original with Fixed in a document.
type Fix struct {
	Original string
	Fixed    string
}

// ApplyFixes replaces the first occurrence of each fix's original span.
// Fixes whose span is missing, empty or unchanged are skipped. It returns the
// edited text and how many fixes were applied.
func ApplyFixes(content string, fixes []Fix) (string, int) {
	applied := 0
	for _, f := range fixes {
		if f.Original == "" || f.Fixed == "" || f.Original == f.Fixed {
			continue
		}
		idx := strings.Index(content, f.Original)
		if idx < 0 {
			continue
		}
		content = content[:idx] + f.Fixed + content[idx+len(f.Original):]
		applied++
	}
	return content, applied
}
