package vectorstore

import (
	"context"
	"math"
	"sort"

	"chatdoc/internal/domain"
)

// Record is one stored (vector, document) pair.
type Record struct {
	ID       string
	Vector   []float32
	Document domain.Document
}

// Storage persists vectors and supports similarity search. Replace swaps
// the whole stored set at once: readers see either the old set or the new
// one, never a mix.
type Storage interface {
	Reset(ctx context.Context) error
	Replace(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK scores every record against vector and returns the best k in
// descending score order. Ties keep insertion order.
func TopK(records []Record, vector []float32, k int) []domain.SearchResult {
	if k <= 0 || len(records) == 0 {
		return nil
	}
	results := make([]domain.SearchResult, len(records))
	for i, r := range records {
		results[i] = domain.SearchResult{Document: r.Document, Score: Cosine(r.Vector, vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}
