package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_SingleChunk(t *testing.T) {
	s := NewSplitter(100)

	text := "This is a simple paragraph."
	chunks := s.Split(text)
	assert.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_TrimsInput(t *testing.T) {
	s := NewSplitter(100)

	chunks := s.Split("  padded text  \n")
	assert.Len(t, chunks, 1)
	assert.Equal(t, "padded text", chunks[0])
}

func TestSplit_Empty(t *testing.T) {
	s := NewSplitter(100)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t"))
}

func TestSplit_NoEmptyChunks(t *testing.T) {
	s := NewSplitter(5)

	text := strings.Repeat("alpha beta gamma delta. ", 40)
	chunks := s.Split(text)
	assert.True(t, len(chunks) > 1)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s := NewSplitter(10)

	text := "# One\nFirst section content here.\n\n# Two\nSecond section content here."
	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

func TestSplit_HeaderSections(t *testing.T) {
	// 12 tokens = 48 chars: each ~42-char section fits in one chunk, the
	// two together do not, so the split lands on the header boundary.
	s := NewSplitter(12)

	text := "# Header 1\nContent for the first section.\n# Header 2\nContent for the second section."
	chunks := s.Split(text)
	assert.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "Header 1")
	assert.Contains(t, chunks[0], "first section")
	assert.Contains(t, chunks[1], "Header 2")
	assert.Contains(t, chunks[1], "second section")
}

func TestSplit_SectionOverBudgetFallsBackToLines(t *testing.T) {
	// 10 tokens = 40 chars: a ~42-char section no longer fits whole, so
	// each section breaks at line boundaries instead.
	s := NewSplitter(10)

	text := "# Header 1\nContent for the first section.\n# Header 2\nContent for the second section."
	chunks := s.Split(text)
	assert.Equal(t, []string{
		"# Header 1",
		"Content for the first section.",
		"# Header 2",
		"Content for the second section.",
	}, chunks)
}

func TestSplit_CodeBlockKeptIntact(t *testing.T) {
	s := NewSplitter(15)

	text := "Here is the setup function used by every example below, explained.\n\n```go\nfunc main() {}\n```\n\nAnd some closing commentary that pushes total length over budget."
	chunks := s.Split(text)

	var code string
	for _, c := range chunks {
		if strings.HasPrefix(c, "```go") {
			code = c
		}
	}
	assert.Equal(t, "```go\nfunc main() {}\n```", code)
}

func TestSplit_LargeCodeBlock(t *testing.T) {
	// 10 tokens = 40 chars; 10 lines of 10 chars forces a split.
	s := NewSplitter(10)

	var body strings.Builder
	for i := 0; i < 10; i++ {
		body.WriteString("0123456789\n")
	}
	text := "```txt\n" + body.String() + "```"

	chunks := s.Split(text)
	assert.True(t, len(chunks) > 1)
	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c, "```txt\n"))
		assert.True(t, strings.HasSuffix(c, "\n```"))
	}
}

func TestSplit_WordFallback(t *testing.T) {
	s := NewSplitter(2) // ~8 chars

	chunks := s.Split("VeryLongWordThatExceedsTheBudget AnotherWord AndMore")
	assert.True(t, len(chunks) >= 2)
}

func TestSplit_OrderPreserved(t *testing.T) {
	s := NewSplitter(8)

	text := "first paragraph marker AAA.\n\nsecond paragraph marker BBB.\n\nthird paragraph marker CCC."
	chunks := s.Split(text)

	joined := strings.Join(chunks, "\n")
	a := strings.Index(joined, "AAA")
	b := strings.Index(joined, "BBB")
	c := strings.Index(joined, "CCC")
	assert.True(t, a >= 0 && b > a && c > b)
}

func TestNewSplitter_DefaultBudget(t *testing.T) {
	s := NewSplitter(0)
	assert.Equal(t, DefaultMaxTokens, s.MaxTokens)
}
