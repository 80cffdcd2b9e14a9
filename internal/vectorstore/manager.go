package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatdoc/internal/domain"
	"chatdoc/internal/logger"
)

// Opener opens the storage backend. It is called lazily and again after
// Delete, so file-backed stores can recreate their directory.
type Opener func(ctx context.Context) (Storage, error)

// Manager owns the persistent index location and decides when to rebuild.
type Manager struct {
	mu       sync.Mutex
	dir      string
	embedder domain.Embedder
	open     Opener
	store    Storage
}

// NewManager creates a manager for the index kept in dir.
func NewManager(dir string, embedder domain.Embedder, open Opener) *Manager {
	return &Manager{dir: dir, embedder: embedder, open: open}
}

// Dir returns the index location.
func (m *Manager) Dir() string { return m.dir }

// GetOrRefresh returns a handle on the current index. With documents and
// force set, or with documents and no existing entries, every document is
// embedded first and the stored set is then replaced wholesale. Embedding
// failures leave the previous index untouched. Without documents the
// existing index is opened as is; a missing index has zero entries.
func (m *Manager) GetOrRefresh(ctx context.Context, docs []domain.Document, force bool) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, err := m.storage(ctx)
	if err != nil {
		return nil, err
	}
	idx := &Index{store: store, embedder: m.embedder}
	if len(docs) == 0 {
		return idx, nil
	}
	if !force {
		n, err := store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting index entries: %w", err)
		}
		if n > 0 {
			return idx, nil
		}
	}

	log := logger.From(ctx)
	records := make([]Record, 0, len(docs))
	for i, d := range docs {
		v, err := m.embedder.Embed(ctx, d.Content)
		if err != nil {
			if !errors.Is(err, domain.ErrEmbeddingBackend) {
				err = fmt.Errorf("%w: %v", domain.ErrEmbeddingBackend, err)
			}
			return nil, err
		}
		log.Debug("embedded chunk", zap.Int("index", i), zap.Int("dims", len(v)))
		records = append(records, Record{ID: uuid.NewString(), Vector: v, Document: d})
	}
	if err := store.Replace(ctx, records); err != nil {
		return nil, fmt.Errorf("replacing index: %w", err)
	}
	log.Info("vector index rebuilt",
		zap.String("dir", m.dir),
		zap.String("model", m.embedder.Name()),
		zap.Int("entries", len(records)))
	return idx, nil
}

// Delete clears the index and removes its directory.
func (m *Manager) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, err := m.storage(ctx)
	if err != nil {
		return err
	}
	m.store = nil
	if err := store.Reset(ctx); err != nil {
		store.Close()
		return fmt.Errorf("resetting index: %w", err)
	}
	if err := store.Close(); err != nil {
		return err
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("removing index directory: %w", err)
	}
	logger.From(ctx).Info("vector index deleted", zap.String("dir", m.dir))
	return nil
}

// Close releases the open storage, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	return err
}

func (m *Manager) storage(ctx context.Context) (Storage, error) {
	if m.store != nil {
		return m.store, nil
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	s, err := m.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	m.store = s
	return s, nil
}

// Index is a queryable handle on the stored vectors.
type Index struct {
	store    Storage
	embedder domain.Embedder
}

// Count returns the number of stored entries.
func (ix *Index) Count(ctx context.Context) (int, error) {
	return ix.store.Count(ctx)
}

// Retrieve embeds query and returns the k most similar documents. An empty
// index returns no matches without calling the embedder.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	n, err := ix.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	v, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return ix.store.Search(ctx, v, k)
}
