package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingKeyIsUnavailable(t *testing.T) {
	t.Setenv("CHATDOC_TEST_GEMINI_KEY", "")
	g := NewGenerator(Config{APIKeyEnv: "CHATDOC_TEST_GEMINI_KEY"})

	_, err := g.Generate(context.Background(), "gemini-2.0-flash", "hi")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = g.ListModels(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDefaults(t *testing.T) {
	g := NewGenerator(Config{})
	assert.Equal(t, DefaultModel, g.model)
	assert.True(t, supportsGenerate([]string{"countTokens", "generateContent"}))
	assert.False(t, supportsGenerate([]string{"embedContent"}))
}
