package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"chatdoc/internal/config"
	"chatdoc/internal/domain"
	"chatdoc/internal/embedding"
	"chatdoc/internal/embedding/hashing"
	embedollama "chatdoc/internal/embedding/ollama"
	"chatdoc/internal/embedding/openai"
	"chatdoc/internal/llm/gemini"
	llmollama "chatdoc/internal/llm/ollama"
	"chatdoc/internal/logger"
	"chatdoc/internal/service"
	"chatdoc/internal/session"
	"chatdoc/internal/summarizer"
	"chatdoc/internal/vectorstore"
	"chatdoc/internal/vectorstore/memory"
	"chatdoc/internal/vectorstore/qdrant"
	"chatdoc/internal/vectorstore/sqlite"
)

// app holds the assembled components shared by every command.
type app struct {
	cfg     *config.AppConfig
	session *session.Session
	manager *vectorstore.Manager
	service *service.ChatService
}

func (a *app) Close() error { return a.manager.Close() }

func buildApp(cfg *config.AppConfig) (*app, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	emb = embedding.NewCached(emb, cfg.Cache.Size, time.Duration(cfg.Cache.TTLSecs)*time.Second)

	open, err := newOpener(cfg, emb)
	if err != nil {
		return nil, err
	}
	gen, model, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	var sum service.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	sess := session.New()
	if model != "" {
		sess.SelectModel(model)
	}
	mgr := vectorstore.NewManager(cfg.VectorStore.Dir, emb, open)
	svc := service.NewChatService(sess, mgr, gen, sum, service.Options{
		Chunking:         cfg.Chunker,
		SummarySentences: cfg.Summarizer.MaxSentences,
		TopTerms:         cfg.Summarizer.TopTerms,
	})
	logger.L().Info("components assembled",
		zap.String("embedder", emb.Name()),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("llm", cfg.LLM.Type),
		zap.String("model", sess.SelectedModel()))
	return &app{cfg: cfg, session: sess, manager: mgr, service: svc}, nil
}

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "ollama", "":
		o := cfg.Embedder.Ollama
		if o == nil {
			o = &config.OllamaConfig{}
		}
		return embedollama.NewEmbedder(embedollama.Config{
			BaseURL: o.BaseURL,
			Model:   o.Model,
			Timeout: time.Duration(o.TimeoutSecs) * time.Second,
		}), nil
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv:  cfg.Embedder.OpenAI.APIKeyEnv,
			Model:      cfg.Embedder.OpenAI.Model,
			Timeout:    time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Embedder.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "hashing":
		dim := hashing.DefaultDimension
		if cfg.Embedder.Hashing != nil {
			dim = cfg.Embedder.Hashing.Dimension
		}
		return hashing.NewEmbedder(dim), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newOpener(cfg *config.AppConfig, emb domain.Embedder) (vectorstore.Opener, error) {
	switch cfg.VectorStore.Type {
	case "sqlite", "":
		dir := cfg.VectorStore.Dir
		return func(ctx context.Context) (vectorstore.Storage, error) {
			return sqlite.Open(ctx, dir, emb.Name())
		}, nil
	case "memory":
		st := memory.NewStorage()
		return func(context.Context) (vectorstore.Storage, error) { return st, nil }, nil
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		st := qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		})
		return func(context.Context) (vectorstore.Storage, error) { return st, nil }, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

// newGenerator returns the answer backend and the model to preselect.
func newGenerator(cfg *config.AppConfig) (domain.Generator, string, error) {
	switch cfg.LLM.Type {
	case "ollama", "":
		o := cfg.LLM.Ollama
		if o == nil {
			o = &config.OllamaConfig{}
		}
		return llmollama.NewGenerator(llmollama.Config{
			BaseURL: o.BaseURL,
			Timeout: time.Duration(o.TimeoutSecs) * time.Second,
		}), o.Model, nil
	case "gemini":
		g := cfg.LLM.Gemini
		if g == nil {
			g = &config.GeminiConfig{}
		}
		return gemini.NewGenerator(gemini.Config{APIKeyEnv: g.APIKeyEnv, Model: g.Model}), g.Model, nil
	default:
		return nil, "", fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}
}

// tuiLogFile keeps log output off the terminal while the TUI owns it.
func tuiLogFile(cfg *config.AppConfig) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(filepath.Dir(cfg.VectorStore.Dir), "chatdoc.log")
}
