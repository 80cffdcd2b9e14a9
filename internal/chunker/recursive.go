package chunker

import (
	"strings"

	"chatdoc/internal/domain"
)

// DefaultSeparators are tried coarsest first. When none fits, the text is
// cut at exactly chunkSize characters.
var DefaultSeparators = []string{"\n\n", "\n", " "}

// RecursiveSplitter cuts text into windows of at most chunkSize characters
// whose ends fall on the coarsest separator available inside the window.
// Consecutive chunks share exactly chunkOverlap characters, so removing the
// overlap from each chunk after the first reconstructs the input, except
// for whitespace-only windows at the very start or end, which are dropped.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   [][]rune
}

// NewRecursiveSplitter creates a splitter; callers validate sizes first.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	seps := make([][]rune, len(DefaultSeparators))
	for i, s := range DefaultSeparators {
		seps[i] = []rune(s)
	}
	return &RecursiveSplitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap, separators: seps}
}

// Split splits a document; every chunk inherits the document metadata.
func (s *RecursiveSplitter) Split(doc domain.Document) ([]domain.Document, error) {
	texts := s.SplitText(doc.Content)
	out := make([]domain.Document, 0, len(texts))
	for _, t := range texts {
		out = append(out, doc.WithContent(t))
	}
	return out, nil
}

// SplitText returns the chunk texts of text.
func (s *RecursiveSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	r := []rune(text)
	n := len(r)
	if n <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		if n-start <= s.chunkSize {
			chunks = append(chunks, string(r[start:]))
			break
		}
		end := s.cut(r, start)
		chunks = append(chunks, string(r[start:end]))
		start = end - s.chunkOverlap
	}
	return trimBlank(chunks)
}

// cut returns the end of the chunk starting at start. The end must leave
// the next start strictly after start.
func (s *RecursiveSplitter) cut(r []rune, start int) int {
	limit := start + s.chunkSize
	floor := start + s.chunkOverlap
	for _, sep := range s.separators {
		if e := lastBoundary(r, sep, floor, limit); e > 0 {
			return e
		}
	}
	return limit
}

// lastBoundary finds the last index e in (floor, limit] such that r[:e]
// ends with sep, or -1.
func lastBoundary(r, sep []rune, floor, limit int) int {
	for e := limit; e > floor && e >= len(sep); e-- {
		if hasSuffixAt(r, sep, e) {
			return e
		}
	}
	return -1
}

func hasSuffixAt(r, sep []rune, e int) bool {
	off := e - len(sep)
	for i, c := range sep {
		if r[off+i] != c {
			return false
		}
	}
	return true
}

// trimBlank drops whitespace-only chunks at either end. Blank chunks
// between text are kept so the overlap chain stays intact.
func trimBlank(chunks []string) []string {
	for len(chunks) > 0 && strings.TrimSpace(chunks[0]) == "" {
		chunks = chunks[1:]
	}
	for len(chunks) > 0 && strings.TrimSpace(chunks[len(chunks)-1]) == "" {
		chunks = chunks[:len(chunks)-1]
	}
	return chunks
}
