package processing

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var blankLines = regexp.MustCompile(`\n\s*\n`)

// ChunkText splits text on blank lines and packs the paragraphs into chunks
// of at most max runes. Paragraphs longer than max are cut on word
// boundaries, repeating up to overlap runes of trailing words in the next
// piece. A single word longer than max becomes its own chunk.
func ChunkText(text string, max, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var out []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, p := range blankLines.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, piece := range splitLong(p, max, overlap) {
			n := utf8.RuneCountInString(piece)
			if curLen > 0 && curLen+2+n > max {
				flush()
			}
			if curLen > 0 {
				cur.WriteString("\n\n")
				curLen += 2
			}
			cur.WriteString(piece)
			curLen += n
		}
	}
	flush()
	return out
}

func splitLong(s string, max, overlap int) []string {
	if utf8.RuneCountInString(s) <= max {
		return []string{s}
	}

	var res []string
	var cur []string
	curLen := 0
	fresh := false
	for _, w := range strings.Fields(s) {
		wl := utf8.RuneCountInString(w)
		if len(cur) > 0 && curLen+1+wl > max {
			res = append(res, strings.Join(cur, " "))
			cur, curLen = tail(cur, overlap)
			if len(cur) > 0 && curLen+1+wl > max {
				cur, curLen = nil, 0
			}
			fresh = false
		}
		if len(cur) > 0 {
			curLen++
		}
		cur = append(cur, w)
		curLen += wl
		fresh = true
	}
	if fresh {
		res = append(res, strings.Join(cur, " "))
	}
	return res
}

// tail returns a copy of the trailing words of ws whose joined length fits
// in overlap runes.
func tail(ws []string, overlap int) ([]string, int) {
	if overlap <= 0 {
		return nil, 0
	}
	n := 0
	i := len(ws)
	for i > 0 {
		wl := utf8.RuneCountInString(ws[i-1])
		add := wl
		if n > 0 {
			add++
		}
		if n+add > overlap {
			break
		}
		n += add
		i--
	}
	return append([]string(nil), ws[i:]...), n
}
