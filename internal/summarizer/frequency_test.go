package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentences(t *testing.T) {
	assert.Equal(t, []string{"Hello world.", "Go is fun!", "Done"}, Sentences("Hello world. Go is fun! Done"))
	assert.Equal(t, []string{"no punctuation here"}, Sentences("  no punctuation here "))
	assert.Empty(t, Sentences("   "))
}

func TestSummarize_ShortTextUnchanged(t *testing.T) {
	s := NewFrequencySummarizer()

	out, err := s.Summarize("One. Two.", 2)
	require.NoError(t, err)
	assert.Equal(t, "One. Two.", out)
}

func TestSummarize_KeepsFrequentSentencesInOrder(t *testing.T) {
	s := NewFrequencySummarizer()
	text := "Go services scale. Cats sleep. Go services are fast."

	out, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, "Go services scale. Go services are fast.", out)
}

func TestSummarize_DefaultMax(t *testing.T) {
	s := NewFrequencySummarizer()
	text := "A one. B two. C three. D four. E five. F six. G seven."

	out, err := s.Summarize(text, 0)
	require.NoError(t, err)
	assert.Len(t, Sentences(out), 5)
}
