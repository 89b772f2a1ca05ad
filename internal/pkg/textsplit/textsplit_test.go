package textsplit

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleText() string {
	words := []string{"tenant", "policy", "refund", "invoice", "pgvector", "café", "résumé", "support"}
	var b strings.Builder
	for i := 0; i < 1500; i++ {
		b.WriteString(words[i%len(words)])
		switch {
		case i%97 == 96:
			b.WriteString("\n\n")
		case i%23 == 22:
			b.WriteString("\n")
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}

func TestSplitShortTextIsSingleWindow(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)

	spans := s.Split("hello world")
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Text: "hello world", Start: 0}, spans[0])
	assert.Empty(t, s.Split(""))
}

func TestSplitWindowsCoverSourceWithExactOverlap(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)
	text := sampleText()
	runes := []rune(text)

	spans := s.Split(text)
	require.Greater(t, len(spans), 3)

	var rebuilt strings.Builder
	for i, sp := range spans {
		length := utf8.RuneCountInString(sp.Text)
		assert.LessOrEqual(t, length, 1000)
		assert.Equal(t, string(runes[sp.Start:sp.Start+length]), sp.Text)
		if i == 0 {
			assert.Equal(t, 0, sp.Start)
			rebuilt.WriteString(sp.Text)
			continue
		}
		prev := spans[i-1]
		prevEnd := prev.Start + utf8.RuneCountInString(prev.Text)
		assert.Equal(t, prevEnd-200, sp.Start, "window %d must overlap the previous by 200", i)
		rebuilt.WriteString(string([]rune(sp.Text)[200:]))
	}
	last := spans[len(spans)-1]
	assert.Equal(t, len(runes), last.Start+utf8.RuneCountInString(last.Text))
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitIsDeterministic(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)
	text := sampleText()

	assert.Equal(t, s.Split(text), s.Split(text))
}

func TestSplitPrefersParagraphBreak(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)
	text := strings.Repeat("a", 700) + "\n\n" + strings.Repeat("b ", 400)

	spans := s.Split(text)
	require.GreaterOrEqual(t, len(spans), 2)
	assert.True(t, strings.HasSuffix(spans[0].Text, "\n\n"))
	assert.Equal(t, 702, utf8.RuneCountInString(spans[0].Text))
	assert.Equal(t, 502, spans[1].Start)
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	s, err := New(10, 3)
	require.NoError(t, err)

	spans := s.Split(strings.Repeat("x", 24))
	require.Len(t, spans, 3)
	assert.Equal(t, []int{0, 7, 14}, []int{spans[0].Start, spans[1].Start, spans[2].Start})
	assert.Len(t, spans[2].Text, 10)
}

func TestNewRejectsBadWindow(t *testing.T) {
	_, err := New(0, 0)
	assert.Error(t, err)
	_, err = New(100, 100)
	assert.Error(t, err)
	_, err = New(100, -1)
	assert.Error(t, err)
}
