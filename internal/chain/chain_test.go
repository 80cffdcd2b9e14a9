package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdoc/internal/domain"
)

type stubRetriever struct {
	results []domain.SearchResult
	err     error
	k       int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	s.k = k
	return s.results, s.err
}

type stubGenerator struct {
	prompt string
	model  string
	reply  string
	err    error
}

func (s *stubGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	s.model, s.prompt = model, prompt
	return s.reply, s.err
}

func (s *stubGenerator) ListModels(context.Context) ([]string, error) { return nil, nil }

func hit(content string) domain.SearchResult {
	return domain.SearchResult{Document: domain.NewDocument(content, "a.txt"), Score: 0.5}
}

func TestAnswerBuildsPromptFromTopK(t *testing.T) {
	r := &stubRetriever{results: []domain.SearchResult{hit("Cats sleep a lot."), hit("Dogs bark.")}}
	g := &stubGenerator{reply: "They sleep."}

	out, err := Build(r, g, "llama3.2:latest").Answer(context.Background(), "What do cats do?")
	require.NoError(t, err)
	assert.Equal(t, "They sleep.", out)
	assert.Equal(t, TopK, r.k)
	assert.Equal(t, "llama3.2:latest", g.model)
	assert.Equal(t,
		"Answer the question based only on the following context:\nCats sleep a lot.\n\nDogs bark.\n\nQuestion: What do cats do?\n\nAnswer: ",
		g.prompt)
}

func TestEmptyIndexStillCallsModel(t *testing.T) {
	g := &stubGenerator{reply: "I don't know."}
	out, err := Build(&stubRetriever{}, g, "m").Answer(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Equal(t, "I don't know.", out)
	assert.Equal(t, "Answer the question based only on the following context:\n\n\nQuestion: anything?\n\nAnswer: ", g.prompt)
}

func TestGeneratorFailureIsGenerationError(t *testing.T) {
	g := &stubGenerator{err: errors.New("dial tcp 127.0.0.1:11434: connection refused")}
	_, err := Build(&stubRetriever{}, g, "m").Answer(context.Background(), "q")
	require.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetrievalFailureIsGenerationError(t *testing.T) {
	r := &stubRetriever{err: domain.ErrEmbeddingBackend}
	g := &stubGenerator{}
	_, err := Build(r, g, "m").Answer(context.Background(), "q")
	require.ErrorIs(t, err, domain.ErrGeneration)
	assert.Empty(t, g.prompt)
}
