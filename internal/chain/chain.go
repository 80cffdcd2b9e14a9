// Package chain answers questions from retrieved context.
package chain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chatdoc/internal/domain"
	"chatdoc/internal/logger"
)

// TopK is the number of chunks placed in the prompt.
const TopK = 3

// PromptTemplate receives the context block and the question.
const PromptTemplate = "Answer the question based only on the following context:\n%s\n\nQuestion: %s\n\nAnswer: "

// Chain retrieves context for a question and asks the generator.
type Chain struct {
	retriever domain.Retriever
	generator domain.Generator
	model     string
}

// Build assembles a chain over retriever answering with model.
func Build(retriever domain.Retriever, generator domain.Generator, model string) *Chain {
	return &Chain{retriever: retriever, generator: generator, model: model}
}

// Prompt renders the prompt for question over the given context documents.
func Prompt(question string, docs []domain.SearchResult) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return fmt.Sprintf(PromptTemplate, strings.Join(parts, "\n\n"), question)
}

// Answer runs retrieval and one generation call. An empty index yields an
// empty context and the model is still asked. Every failure wraps
// domain.ErrGeneration; nothing is retried.
func (c *Chain) Answer(ctx context.Context, question string) (string, error) {
	log := logger.From(ctx)
	docs, err := c.retriever.Retrieve(ctx, question, TopK)
	if err != nil {
		return "", fmt.Errorf("%w: retrieving context: %v", domain.ErrGeneration, err)
	}
	log.Debug("retrieved context", zap.Int("chunks", len(docs)), zap.String("model", c.model))

	out, err := c.generator.Generate(ctx, c.model, Prompt(question, docs))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return out, nil
}
