package processing

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortTextIsOneChunk(t *testing.T) {
	got := ChunkText("  The sky is blue.\n\nWater is wet.  ", 1000, 100)
	assert.Equal(t, []string{"The sky is blue.\n\nWater is wet."}, got)
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText(" \n\n ", 100, 10))
}

func TestChunkText_PacksParagraphs(t *testing.T) {
	paras := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	got := ChunkText(strings.Join(paras, "\n\n"), 90, 0)

	require.Len(t, got, 2)
	assert.Equal(t, paras[0]+"\n\n"+paras[1], got[0])
	assert.Equal(t, paras[2], got[1])
}

func TestChunkText_SplitsLongParagraphOnWords(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	got := ChunkText(text, 50, 10)

	require.Greater(t, len(got), 1)
	for _, c := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
		assert.False(t, strings.HasPrefix(c, " "))
		for _, w := range strings.Fields(c) {
			assert.Equal(t, "word", w, "no word is cut")
		}
	}
}

func TestSplitLong_Overlap(t *testing.T) {
	got := splitLong("one two three four five six", 14, 5)

	require.Len(t, got, 3)
	assert.Equal(t, "one two three", got[0])
	assert.Equal(t, "three four", got[1])
	assert.Equal(t, "four five six", got[2])
}

func TestSplitLong_OversizedWord(t *testing.T) {
	long := strings.Repeat("x", 30)
	got := splitLong("tiny "+long+" end", 10, 0)

	assert.Equal(t, []string{"tiny", long, "end"}, got)
}

func TestDiffWords(t *testing.T) {
	before, after := DiffWords("built in 1822 as a sundial", "built in 1889 as a sundial")

	assert.Equal(t, "built in 1822 as a sundial", Render(before, "", ""))
	assert.Equal(t, "built in [-1822-] as a sundial", Render(before, "[-", "-]"))
	assert.Equal(t, "built in {+1889+} as a sundial", Render(after, "{+", "+}"))

	var changed []string
	for _, tk := range after {
		if tk.Changed {
			changed = append(changed, tk.Text)
		}
		if tk.Space {
			assert.False(t, tk.Changed)
		}
	}
	assert.Equal(t, []string{"1889"}, changed)
}

func TestDiffWords_KeepsWhitespace(t *testing.T) {
	before, _ := DiffWords("a  b\nc", "a b c")
	assert.Equal(t, "a  b\nc", Render(before, "<", ">"))
}

func TestApplyFixes(t *testing.T) {
	doc := "The tower was built in 1822. It is 330 meters tall."
	got, n := ApplyFixes(doc, []Fix{
		{Original: "built in 1822", Fixed: "built in 1889"},
		{Original: "330 meters", Fixed: "330 meters"},
		{Original: "not in the doc", Fixed: "whatever"},
		{Original: "", Fixed: "x"},
	})

	assert.Equal(t, 1, n)
	assert.Equal(t, "The tower was built in 1889. It is 330 meters tall.", got)
}
