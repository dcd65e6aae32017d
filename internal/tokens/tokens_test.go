package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-separated words.
type wordCounter struct{ calls int }

func (w *wordCounter) CountTokens(text string) int {
	w.calls++
	return len(strings.Fields(text))
}

func (w *wordCounter) Close() {}

func TestTallyCountsPerFile(t *testing.T) {
	wc := &wordCounter{}
	tally := NewTally(wc)

	tally.BeginFile("a.go")
	tally.Observe([]byte("package "))
	tally.Observe([]byte("a\n"))
	tally.EndFile("a.go")

	tally.BeginFile("empty.go")
	tally.EndFile("empty.go")

	tally.BeginFile("b.go")
	tally.Observe([]byte("one two three"))
	tally.EndFile("b.go")

	assert.Equal(t, []FileTokens{
		{Path: "a.go", Tokens: 2},
		{Path: "empty.go", Tokens: 0},
		{Path: "b.go", Tokens: 3},
	}, tally.Files())
	assert.Equal(t, 5, tally.Total())
	assert.Equal(t, 2, wc.calls, "empty files are not tokenized")
}

func TestTallyResetsBetweenFiles(t *testing.T) {
	tally := NewTally(&wordCounter{})

	tally.BeginFile("a")
	tally.Observe([]byte("x y"))
	tally.BeginFile("b") // a file that failed before its END marker
	tally.Observe([]byte("z"))
	tally.EndFile("b")

	assert.Equal(t, []FileTokens{{Path: "b", Tokens: 1}}, tally.Files())
}

func TestNewRejectsUnknownTokenizer(t *testing.T) {
	_, err := New(Options{Tokenizer: "sentencepiece"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentencepiece")
}

func TestNewHuggingFaceMissingFile(t *testing.T) {
	_, err := New(Options{Tokenizer: "huggingface", File: "/does/not/exist/tokenizer.json"})
	assert.Error(t, err)
}
