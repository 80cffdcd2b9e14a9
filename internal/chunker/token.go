package chunker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"chatdoc/internal/domain"
)

// TokenEncoding is the tokenizer used to count model tokens.
const TokenEncoding = "cl100k_base"

var loaderOnce sync.Once

// TokenSplitter cuts text into windows of model tokens.
type TokenSplitter struct {
	enc          *tiktoken.Tiktoken
	chunkSize    int
	chunkOverlap int
}

// NewTokenSplitter creates a splitter with sizes measured in tokens. The
// BPE ranks are embedded, so no network access is needed.
func NewTokenSplitter(chunkSize, chunkOverlap int) (*TokenSplitter, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: token overlap %d, token size %d", domain.ErrInvalidChunking, chunkOverlap, chunkSize)
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(TokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", TokenEncoding, err)
	}
	return &TokenSplitter{enc: enc, chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split splits a document; every chunk inherits the document metadata.
func (s *TokenSplitter) Split(doc domain.Document) ([]domain.Document, error) {
	texts := s.SplitText(doc.Content)
	out := make([]domain.Document, 0, len(texts))
	for _, t := range texts {
		out = append(out, doc.WithContent(t))
	}
	return out, nil
}

// SplitText returns the decoded token windows of text.
func (s *TokenSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ids := s.enc.Encode(text, nil, nil)
	var chunks []string
	for start := 0; start < len(ids); start += s.chunkSize - s.chunkOverlap {
		end := start + s.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, s.enc.Decode(ids[start:end]))
		if end == len(ids) {
			break
		}
	}
	return trimBlank(chunks)
}

// CountTokens returns the number of tokens in text.
func (s *TokenSplitter) CountTokens(text string) int {
	return len(s.enc.Encode(text, nil, nil))
}
