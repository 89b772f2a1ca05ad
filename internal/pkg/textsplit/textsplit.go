// Package textsplit cuts page text into overlapping windows for embedding.
//
// Windows hold at most Size characters (runes) and each window after the first
// starts exactly Overlap characters before the previous one ended, so the
// windows cover the source with no gaps. A window prefers to end just after a
// paragraph break, then a line break, then a space, as long as that break lies
// in the second half of the window; otherwise it is cut hard at Size.
package textsplit

import "fmt"

var defaultSeparators = []string{"\n\n", "\n", " "}

// Span is one window and the rune offset where it starts in the source text.
type Span struct {
	Text  string
	Start int
}

type Splitter struct {
	size       int
	overlap    int
	separators [][]rune
}

func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	seps := make([][]rune, len(defaultSeparators))
	for i, s := range defaultSeparators {
		seps[i] = []rune(s)
	}
	return &Splitter{size: size, overlap: overlap, separators: seps}, nil
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }

func (s *Splitter) Split(text string) []Span {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var spans []Span
	start := 0
	for {
		limit := start + s.size
		if limit >= n {
			return append(spans, Span{Text: string(runes[start:]), Start: start})
		}
		end := s.breakPoint(runes, start, limit)
		spans = append(spans, Span{Text: string(runes[start:end]), Start: start})
		start = end - s.overlap
	}
}

// breakPoint picks the window end in [floor, limit]. floor keeps every step
// advancing by more than half of the non-overlapping part.
func (s *Splitter) breakPoint(runes []rune, start, limit int) int {
	floor := start + s.overlap + 1
	if half := start + s.size/2; half > floor {
		floor = half
	}
	for _, sep := range s.separators {
		for i := limit - len(sep); i+len(sep) >= floor && i >= start; i-- {
			if hasPrefix(runes[i:], sep) {
				return i + len(sep)
			}
		}
	}
	return limit
}

func hasPrefix(runes, prefix []rune) bool {
	if len(runes) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if runes[i] != r {
			return false
		}
	}
	return true
}
