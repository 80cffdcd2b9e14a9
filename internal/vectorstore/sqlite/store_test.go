package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdoc/internal/domain"
	"chatdoc/internal/vectorstore"
)

func record(id, content string, v ...float32) vectorstore.Record {
	return vectorstore.Record{ID: id, Vector: v, Document: domain.NewDocument(content, "src.txt")}
}

func TestReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "vector_store")
	s, err := Open(ctx, dir, "m1")
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, filepath.Join(dir, FileName))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Replace(ctx, []vectorstore.Record{
		record("a", "alpha", 1, 0),
		record("b", "beta", 0, 1),
		record("c", "gamma", 0.7, 0.7),
	}))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "alpha", res[0].Content)
	assert.Equal(t, "gamma", res[1].Content)
	assert.Equal(t, "src.txt", res[0].Source())
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}

func TestReplaceDropsPreviousSet(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir(), "m1")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Replace(ctx, []vectorstore.Record{record("old", "old upload", 1, 0)}))
	require.NoError(t, s.Replace(ctx, []vectorstore.Record{record("new", "new upload", 0, 1)}))

	res, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "new upload", res[0].Content)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, dir, "m1")
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, []vectorstore.Record{record("a", "kept", 1, 0)}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, dir, "m1")
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOtherModelIndexIsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, dir, "m1")
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, []vectorstore.Record{record("a", "x", 1, 0)}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, dir, "m2")
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	res, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir(), "m1")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Replace(ctx, []vectorstore.Record{record("a", "x", 1)}))
	require.NoError(t, s.Reset(ctx))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 3}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
}
