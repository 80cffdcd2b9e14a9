package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"chatdoc/internal/domain"
)

// Strategy selects how documents are split.
type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategyToken     Strategy = "token"
	StrategyMarkdown  Strategy = "markdown"
)

// Labels are the display names of each strategy.
var Labels = map[Strategy]string{
	StrategyRecursive: "Recursive Character (Smart)",
	StrategyToken:     "Token-based",
	StrategyMarkdown:  "Markdown-aware",
}

// Defaults used when no configuration is given.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// tokenScale converts character sizes to token sizes.
const tokenScale = 4

// Config is a chunking configuration. Size and overlap are measured in
// characters; the token strategy divides both by 4.
type Config struct {
	Strategy     Strategy `yaml:"strategy" json:"strategy"`
	ChunkSize    int      `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap" json:"chunk_overlap"`
}

// DefaultConfig returns the recursive strategy with default sizes.
func DefaultConfig() Config {
	return Config{Strategy: StrategyRecursive, ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap}
}

// Validate checks the configuration. The markdown strategy ignores sizes.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyMarkdown:
		return nil
	case StrategyRecursive:
		if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
			return fmt.Errorf("%w: need 0 <= chunk_overlap (%d) < chunk_size (%d)", domain.ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
		}
	case StrategyToken:
		size, overlap := c.ChunkSize/tokenScale, c.ChunkOverlap/tokenScale
		if size <= 0 || overlap < 0 || overlap >= size {
			return fmt.Errorf("%w: need 0 <= token overlap (%d) < token size (%d)", domain.ErrInvalidChunking, overlap, size)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidChunking, c.Strategy)
	}
	return nil
}

// Splitter splits one document into chunks.
type Splitter interface {
	Split(doc domain.Document) ([]domain.Document, error)
}

// New returns the splitter for cfg.
func New(cfg Config) (Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case StrategyToken:
		return NewTokenSplitter(cfg.ChunkSize/tokenScale, cfg.ChunkOverlap/tokenScale)
	case StrategyMarkdown:
		return NewMarkdownSplitter(), nil
	default:
		return NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap), nil
	}
}

// Split splits every document with cfg. Output keeps document order and,
// within a document, text order. Empty documents produce no chunks.
func Split(docs []domain.Document, cfg Config) ([]domain.Document, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	var out []domain.Document
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		chunks, err := s.Split(d)
		if err != nil {
			return nil, err
		}
		out = append(out, chunks...)
	}
	return out, nil
}

// Stats summarizes a chunk set.
type Stats struct {
	Count       int `json:"count"`
	AverageSize int `json:"average_size"`
}

// Summarize computes chunk statistics; sizes are in characters.
func Summarize(chunks []domain.Document) Stats {
	if len(chunks) == 0 {
		return Stats{}
	}
	total := 0
	for _, c := range chunks {
		total += utf8.RuneCountInString(c.Content)
	}
	return Stats{Count: len(chunks), AverageSize: total / len(chunks)}
}
