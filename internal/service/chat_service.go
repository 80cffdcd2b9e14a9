package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chatdoc/internal/chain"
	"chatdoc/internal/chunker"
	"chatdoc/internal/domain"
	"chatdoc/internal/extract"
	"chatdoc/internal/logger"
	"chatdoc/internal/session"
	"chatdoc/internal/summarizer"
	"chatdoc/internal/vectorstore"
)

// NoDocumentsReply is the answer given when nothing has been uploaded.
const NoDocumentsReply = "Please upload a document first."

// Summarizer produces the overview shown after an upload.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
	TopTerms(text string, n int) []summarizer.TermCount
}

// Options tunes the service.
type Options struct {
	Chunking         chunker.Config
	SummarySentences int
	TopTerms         int
}

// UploadResult describes a processed upload.
type UploadResult struct {
	Source   string                 `json:"source"`
	Kind     string                 `json:"kind"`
	Chunks   []domain.Document      `json:"chunks"`
	Stats    chunker.Stats          `json:"stats"`
	Summary  string                 `json:"summary"`
	TopTerms []summarizer.TermCount `json:"top_terms"`
}

// ChatService runs the upload and question pipelines over one session.
// Upload, Ask and Reset are serialized.
type ChatService struct {
	mu         sync.Mutex
	session    *session.Session
	manager    *vectorstore.Manager
	generator  domain.Generator
	summarizer Summarizer
	opts       Options
}

// NewChatService wires the pipeline components.
func NewChatService(sess *session.Session, manager *vectorstore.Manager, generator domain.Generator, sum Summarizer, opts Options) *ChatService {
	if opts.Chunking.Strategy == "" {
		opts.Chunking = chunker.DefaultConfig()
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 5
	}
	if opts.TopTerms <= 0 {
		opts.TopTerms = 20
	}
	return &ChatService{session: sess, manager: manager, generator: generator, summarizer: sum, opts: opts}
}

// Session returns the session the service works on.
func (s *ChatService) Session() *session.Session { return s.session }

// ChunkingDefaults returns the configured chunking settings.
func (s *ChatService) ChunkingDefaults() chunker.Config { return s.opts.Chunking }

// Upload extracts, chunks and indexes one file, replacing any previous
// upload. A nil cfg uses the configured chunking settings. Structured
// formats are indexed as extracted. Tables and GeoJSON reach the session
// only once the index holds the new chunks.
func (s *ChatService) Upload(ctx context.Context, data []byte, filename string, cfg *chunker.Config) (*UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunking := s.opts.Chunking
	if cfg != nil {
		chunking = *cfg
	}
	if err := chunking.Validate(); err != nil {
		return nil, err
	}
	log := logger.From(ctx).With(zap.String("source", filename))

	staged := session.New()
	docs, kind, err := extract.Extract(ctx, staged, data, filename)
	if err != nil {
		return nil, err
	}
	chunks := docs
	if extract.NeedsChunking(kind) {
		chunks, err = chunker.Split(docs, chunking)
		if err != nil {
			return nil, err
		}
	}
	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		return nil, fmt.Errorf("%w: %s produced no chunks", domain.ErrEmptyDocument, filename)
	}
	stats := chunker.Summarize(chunks)
	log.Info("document chunked",
		zap.String("strategy", string(chunking.Strategy)),
		zap.Int("chunks", stats.Count),
		zap.Int("avg_size", stats.AverageSize))

	if _, err := s.manager.GetOrRefresh(ctx, chunks, true); err != nil {
		return nil, err
	}
	s.session.SetDocuments(chunks)
	s.session.Adopt(staged)

	res := &UploadResult{Source: filename, Kind: kind.String(), Chunks: chunks, Stats: stats}
	if s.summarizer != nil {
		text := joinContent(chunks)
		if res.Summary, err = s.summarizer.Summarize(text, s.opts.SummarySentences); err != nil {
			log.Warn("summary failed", zap.Error(err))
		}
		res.TopTerms = s.summarizer.TopTerms(text, s.opts.TopTerms)
	}
	return res, nil
}

// Ask records question in the transcript and answers it from the index.
// Without uploaded documents it replies NoDocumentsReply and touches
// neither the index nor the generator. On failure the question stays in
// the transcript and no answer is recorded.
func (s *ChatService) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.AppendMessage(domain.RoleUser, question)
	if !s.session.HasDocuments() {
		return NoDocumentsReply, nil
	}
	idx, err := s.manager.GetOrRefresh(ctx, nil, false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	model := s.session.SelectedModel()
	answer, err := chain.Build(idx, s.generator, model).Answer(ctx, question)
	if err != nil {
		logger.From(ctx).Error("answer failed", zap.String("model", model), zap.Error(err))
		return "", err
	}
	s.session.AppendMessage(domain.RoleAssistant, answer)
	return answer, nil
}

// Reset deletes the persisted index and clears documents and transcript.
func (s *ChatService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Reset()
	return s.manager.Delete(ctx)
}

// Models lists the generator's models. When the backend cannot be reached
// the selected model is returned alone with the error.
func (s *ChatService) Models(ctx context.Context) ([]string, error) {
	names, err := s.generator.ListModels(ctx)
	if err != nil {
		logger.From(ctx).Warn("listing models failed", zap.Error(err))
		return []string{s.session.SelectedModel()}, err
	}
	return names, nil
}

// SelectModel sets the model used by later questions.
func (s *ChatService) SelectModel(name string) {
	s.session.SelectModel(name)
}

// SelectedModel returns the model used for answers.
func (s *ChatService) SelectedModel() string { return s.session.SelectedModel() }

// Messages returns a copy of the transcript.
func (s *ChatService) Messages() []domain.Message { return s.session.Messages() }

// Documents returns the chunks of the current upload.
func (s *ChatService) Documents() []domain.Document { return s.session.Documents() }

func joinContent(docs []domain.Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, " ")
}
