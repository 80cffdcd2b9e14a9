package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf16"

	"go.uber.org/zap"

	"chatdoc/internal/domain"
	"chatdoc/internal/logger"
	"chatdoc/internal/session"
)

var errNoDocumentXML = errors.New("word/document.xml not found")

const (
	// minRunLength is the shortest printable run kept by the binary fallback.
	minRunLength = 4
	// maxWideRune bounds UTF-16 code units accepted as text. Pairs of 8-bit
	// characters decode to units at or above it.
	maxWideRune = 0x2000
)

// extractWord reads OOXML documents and falls back to scraping text runs
// from legacy binary .doc files.
func extractWord(ctx context.Context, _ *session.Session, data []byte, source string) ([]domain.Document, error) {
	text, err := docxText(data)
	if err == nil {
		return []domain.Document{domain.NewDocument(text, source)}, nil
	}
	logger.From(ctx).Debug("docx extraction failed, trying binary fallback", zap.String("source", source), zap.Error(err))

	text = binaryDocText(data)
	if strings.TrimSpace(text) == "" {
		return nil, malformed("word", err)
	}
	return []domain.Document{domain.NewDocument(text, source)}, nil
}

func docxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return parseDocumentXML(content)
	}
	return "", errNoDocumentXML
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []struct {
		Content string `xml:",chardata"`
	} `xml:"t"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}
	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// binaryDocText collects printable runs from a binary Word file, reading
// both 8-bit and UTF-16LE text and keeping whichever yields more.
func binaryDocText(data []byte) string {
	ascii := asciiRuns(data)
	wide := utf16Runs(data)
	if len(wide) > len(ascii) {
		return wide
	}
	return ascii
}

func asciiRuns(data []byte) string {
	var runs []string
	var cur []byte
	flush := func() {
		if len(cur) >= minRunLength {
			runs = append(runs, strings.TrimSpace(string(cur)))
		}
		cur = cur[:0]
	}
	for _, c := range data {
		if c == '\r' || c == '\n' || c == '\t' || (c >= 0x20 && c < 0x7f) {
			cur = append(cur, c)
			continue
		}
		flush()
	}
	flush()
	return joinRuns(runs)
}

func utf16Runs(data []byte) string {
	var runs []string
	var cur []uint16
	flush := func() {
		if len(cur) >= minRunLength {
			runs = append(runs, strings.TrimSpace(string(utf16.Decode(cur))))
		}
		cur = cur[:0]
	}
	for i := 0; i+1 < len(data); i += 2 {
		u := binary.LittleEndian.Uint16(data[i:])
		r := rune(u)
		if r == '\r' || r == '\n' || r == '\t' || (r >= 0x20 && r < maxWideRune && unicode.IsPrint(r)) {
			cur = append(cur, u)
			continue
		}
		flush()
	}
	flush()
	return joinRuns(runs)
}

func joinRuns(runs []string) string {
	out := runs[:0]
	for _, r := range runs {
		if r != "" {
			out = append(out, r)
		}
	}
	return strings.Join(out, "\n")
}
