package chunker

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"chatdoc/internal/domain"
)

// HeaderKeys are the metadata keys of the heading path, by level.
var HeaderKeys = [...]string{"Header 1", "Header 2", "Header 3"}

// MarkdownSplitter splits on level 1-3 headings. Each chunk is the text
// under one heading, without the heading line, and carries the heading
// path as metadata. Deeper headings stay inside their section.
type MarkdownSplitter struct {
	md goldmark.Markdown
}

// NewMarkdownSplitter creates a heading splitter.
func NewMarkdownSplitter() *MarkdownSplitter {
	return &MarkdownSplitter{md: goldmark.New()}
}

type headingSpan struct {
	level      int
	title      string
	start, end int // byte range of the heading lines
}

// Split splits a document at its headings.
func (s *MarkdownSplitter) Split(doc domain.Document) ([]domain.Document, error) {
	src := []byte(doc.Content)
	headings := s.headings(src)

	var out []domain.Document
	var path [len(HeaderKeys)]string
	emit := func(body []byte) {
		content := strings.TrimSpace(string(body))
		if content == "" {
			return
		}
		chunk := doc.WithContent(content)
		for i, h := range path {
			if h != "" {
				chunk.Metadata[HeaderKeys[i]] = h
			}
		}
		out = append(out, chunk)
	}

	pos := 0
	for _, h := range headings {
		emit(src[pos:h.start])
		path[h.level-1] = h.title
		for i := h.level; i < len(path); i++ {
			path[i] = ""
		}
		pos = h.end
	}
	emit(src[pos:])
	return out, nil
}

// headings lists top-level headings of level 1-3 in source order. Heading
// markers inside code blocks or block quotes are not headings.
func (s *MarkdownSplitter) headings(src []byte) []headingSpan {
	doc := s.md.Parser().Parse(text.NewReader(src))
	var spans []headingSpan
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		h, ok := node.(*ast.Heading)
		if !ok || h.Level > len(HeaderKeys) {
			continue
		}
		lines := h.Lines()
		var start, end int
		if lines.Len() > 0 {
			start = lineStart(src, lines.At(0).Start)
			end = lineEnd(src, lines.At(lines.Len()-1).Stop)
		} else {
			// empty ATX heading such as "#"
			start, end = emptyHeadingSpan(src, spans)
			if start < 0 {
				continue
			}
		}
		if !isATX(src, start) {
			end = skipSetextUnderline(src, end)
		}
		spans = append(spans, headingSpan{
			level: h.Level,
			title: strings.TrimSpace(string(h.Text(src))),
			start: start,
			end:   end,
		})
	}
	return spans
}

func lineStart(src []byte, i int) int {
	if i > len(src) {
		i = len(src)
	}
	if j := bytes.LastIndexByte(src[:i], '\n'); j >= 0 {
		return j + 1
	}
	return 0
}

func lineEnd(src []byte, i int) int {
	if i > len(src) {
		return len(src)
	}
	if j := bytes.IndexByte(src[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(src)
}

func isATX(src []byte, start int) bool {
	return bytes.HasPrefix(bytes.TrimLeft(src[start:], " \t"), []byte("#"))
}

// skipSetextUnderline moves past an "===" or "---" line following a
// setext heading.
func skipSetextUnderline(src []byte, pos int) int {
	if pos >= len(src) {
		return pos
	}
	next := lineEnd(src, pos)
	line := strings.TrimSpace(string(src[pos:next]))
	if line != "" && (strings.Trim(line, "=") == "" || strings.Trim(line, "-") == "") {
		return next
	}
	return pos
}

// emptyHeadingSpan locates a bare "#" line after the previous heading.
func emptyHeadingSpan(src []byte, prev []headingSpan) (int, int) {
	from := 0
	if len(prev) > 0 {
		from = prev[len(prev)-1].end
	}
	for pos := from; pos < len(src); {
		end := lineEnd(src, pos)
		line := strings.TrimSpace(string(src[pos:end]))
		if line != "" && strings.Trim(line, "#") == "" {
			return pos, end
		}
		pos = end
	}
	return -1, -1
}
