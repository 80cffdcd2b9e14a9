package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"chatdoc/internal/domain"
	"chatdoc/internal/session"
)

// MetaPage is the metadata key of a PDF page number (0-based).
const MetaPage = "page"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "�")
}

func extractText(_ context.Context, _ *session.Session, data []byte, source string) ([]domain.Document, error) {
	return []domain.Document{domain.NewDocument(decodeText(data), source)}, nil
}

// extractMarkdown keeps the markdown source so heading-aware chunking can
// see the heading markers.
func extractMarkdown(_ context.Context, _ *session.Session, data []byte, source string) ([]domain.Document, error) {
	return []domain.Document{domain.NewDocument(decodeText(data), source)}, nil
}

// extractPDF yields one document per page.
func extractPDF(_ context.Context, _ *session.Session, data []byte, source string) (docs []domain.Document, err error) {
	defer func() {
		// the pdf reader panics on some corrupt cross-reference tables
		if r := recover(); r != nil {
			docs, err = nil, malformed("pdf", fmt.Errorf("%v", r))
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, malformed("pdf", err)
	}
	n := r.NumPage()
	docs = make([]domain.Document, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, malformed("pdf", fmt.Errorf("page %d: %w", i, err))
		}
		doc := domain.NewDocument(text, source)
		doc.Metadata[MetaPage] = i - 1
		docs = append(docs, doc)
	}
	return docs, nil
}
