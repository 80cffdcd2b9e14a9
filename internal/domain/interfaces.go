package domain

import "context"

// MetaSource is the metadata key every Document carries.
const MetaSource = "source"

// Document is a unit of ingested text. Chunks are Documents too and carry
// their parent's metadata.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// NewDocument creates a Document attributed to source.
func NewDocument(content, source string) Document {
	return Document{Content: content, Metadata: map[string]any{MetaSource: source}}
}

// Source returns the source identifier of the document.
func (d Document) Source() string {
	s, _ := d.Metadata[MetaSource].(string)
	return s
}

// WithContent returns a copy of d holding content and a copy of d's metadata.
func (d Document) WithContent(content string) Document {
	meta := make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	return Document{Content: content, Metadata: meta}
}

// SearchResult represents a matching document with a relevance score.
type SearchResult struct {
	Document
	Score float64 `json:"score"`
}

// Message is one turn of the chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Embedder converts free text into a numeric vector representation.
// Embeddings must be deterministic for a fixed model and input.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a prompt using a named language model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Retriever returns the documents most similar to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error)
}
