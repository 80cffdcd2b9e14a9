package memory

import (
	"context"
	"sync"

	"chatdoc/internal/domain"
	"chatdoc/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Contents live for the process lifetime.
type Storage struct {
	mu      sync.RWMutex
	records []vectorstore.Record
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Replace(_ context.Context, records []vectorstore.Record) error {
	next := make([]vectorstore.Record, len(records))
	copy(next, records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.TopK(s.records, vector, topK), nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *Storage) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

// Close is a no-op; the records stay available to a later GetOrRefresh.
func (s *Storage) Close() error { return nil }
