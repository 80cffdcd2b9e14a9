package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.False(t, req.Stream)
		_, _ = w.Write([]byte(`{"response":"Paris.","done":true}`))
	}))
	defer srv.Close()

	out, err := NewGenerator(Config{BaseURL: srv.URL}).Generate(context.Background(), "mistral", "capital?")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out)
}

func TestGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'x' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewGenerator(Config{BaseURL: srv.URL}).Generate(context.Background(), "x", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListModelsFiltersEmbeddingModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[
			{"name":"llama3.2:latest","model":"llama3.2:latest"},
			{"name":"mxbai-embed-large:latest","model":"mxbai-embed-large:latest"},
			{"name":"nomic-embed-text","model":""},
			{"name":"mistral:7b","model":"mistral:7b"}
		]}`))
	}))
	defer srv.Close()

	names, err := NewGenerator(Config{BaseURL: srv.URL}).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:latest", "mistral:7b"}, names)
}

func TestListModelsEmptyInstall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	names, err := NewGenerator(Config{BaseURL: srv.URL}).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultModel}, names)
}
