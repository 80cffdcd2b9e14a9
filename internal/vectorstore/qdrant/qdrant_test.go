package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdoc/internal/domain"
	"chatdoc/internal/vectorstore"
)

func TestReplaceRecreatesCollection(t *testing.T) {
	var calls []string
	var upserted struct {
		Points []struct {
			ID      string         `json:"id"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/collections/docs/points":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&upserted))
		}
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, APIKey: "secret", Collection: "docs"})
	err := s.Replace(context.Background(), []vectorstore.Record{
		{ID: "chunk-1", Vector: []float32{1, 0}, Document: domain.NewDocument("hello", "a.txt")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DELETE /collections/docs",
		"PUT /collections/docs",
		"PUT /collections/docs/points",
	}, calls)
	require.Len(t, upserted.Points, 1)
	_, err = uuid.Parse(upserted.Points[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, "hello", upserted.Points[0].Payload["content"])
}

func TestSearchAndCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/docs/points/search":
			_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{"content":"hit","metadata":{"source":"a.txt"}}}]}`))
		case "/collections/docs/points/count":
			_, _ = w.Write([]byte(`{"result":{"count":7}}`))
		}
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, Collection: "docs"})
	res, err := s.Search(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "hit", res[0].Content)
	assert.Equal(t, "a.txt", res[0].Source())

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestMissingCollectionIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, Collection: "docs"})
	res, err := s.Search(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
