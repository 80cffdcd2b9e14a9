// Package extract turns uploaded bytes into documents. Dispatch is on the
// file extension only.
//
// Tabular and geographic side payloads are written to the session under
// the document's source key (the uploaded file name). Display layers read
// them back with session.DataFrame(source) and session.GeoJSON().
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"chatdoc/internal/domain"
	"chatdoc/internal/logger"
	"chatdoc/internal/session"
)

// FormatKind is the closed set of supported upload formats.
type FormatKind int

const (
	KindText FormatKind = iota
	KindPDF
	KindWord
	KindJSON
	KindGeoJSON
	KindCSV
	KindMarkdown
)

var kindNames = [...]string{
	KindText:     "text",
	KindPDF:      "pdf",
	KindWord:     "word",
	KindJSON:     "json",
	KindGeoJSON:  "geojson",
	KindCSV:      "csv",
	KindMarkdown: "markdown",
}

func (k FormatKind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("FormatKind(%d)", int(k))
	}
	return kindNames[k]
}

// Format describes one allow-listed extension.
type Format struct {
	Extension   string
	Kind        FormatKind
	Description string
}

// SupportedFormats is the upload allow-list.
var SupportedFormats = []Format{
	{".txt", KindText, "Text files"},
	{".pdf", KindPDF, "PDF files"},
	{".docx", KindWord, "Word documents"},
	{".doc", KindWord, "Word documents"},
	{".json", KindJSON, "JSON files"},
	{".geojson", KindGeoJSON, "GeoJSON files"},
	{".csv", KindCSV, "CSV files"},
	{".md", KindMarkdown, "Markdown files"},
}

// extractFunc converts raw bytes into documents for one kind.
type extractFunc func(ctx context.Context, sess *session.Session, data []byte, source string) ([]domain.Document, error)

var extractors = map[FormatKind]extractFunc{
	KindText:     extractText,
	KindPDF:      extractPDF,
	KindWord:     extractWord,
	KindJSON:     extractJSON,
	KindGeoJSON:  extractJSON,
	KindCSV:      extractCSV,
	KindMarkdown: extractMarkdown,
}

// KindFromFilename maps a file name to its format kind.
func KindFromFilename(filename string) (FormatKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range SupportedFormats {
		if f.Extension == ext {
			return f.Kind, nil
		}
	}
	if ext == "" {
		ext = filename
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
}

// NeedsChunking reports whether documents of kind go through the chunker.
// Structured formats are indexed as extracted.
func NeedsChunking(kind FormatKind) bool {
	switch kind {
	case KindJSON, KindGeoJSON, KindCSV:
		return false
	default:
		return true
	}
}

// Extract converts an uploaded file into documents. The file name is the
// source key of every document produced and of any payload parked in sess.
func Extract(ctx context.Context, sess *session.Session, data []byte, filename string) ([]domain.Document, FormatKind, error) {
	kind, err := KindFromFilename(filename)
	if err != nil {
		return nil, 0, err
	}
	fn, ok := extractors[kind]
	if !ok {
		return nil, kind, fmt.Errorf("%w: no extractor for %s", domain.ErrUnsupportedFormat, kind)
	}
	log := logger.From(ctx).With(zap.String("source", filename), zap.String("kind", kind.String()))
	log.Debug("extracting document", zap.Int("bytes", len(data)))

	docs, err := fn(ctx, sess, data, filename)
	if err != nil {
		log.Warn("extraction failed", zap.Error(err))
		return nil, kind, err
	}
	if isEmpty(docs) {
		return nil, kind, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, filename)
	}
	log.Info("document extracted", zap.Int("documents", len(docs)))
	return docs, kind, nil
}

func isEmpty(docs []domain.Document) bool {
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			return false
		}
	}
	return true
}

func malformed(format string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrMalformedContent, format, err)
}
