// Package gemini implements answer generation with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when the caller names no model.
const DefaultModel = "gemini-2.0-flash"

// ErrUnavailable is returned when no API key is configured.
var ErrUnavailable = errors.New("gemini: api key not configured")

// Config configures the Gemini generator.
type Config struct {
	APIKeyEnv string
	Model     string
}

// Generator calls Gemini's generateContent.
type Generator struct {
	apiKey string
	model  string
}

// NewGenerator reads the API key from cfg.APIKeyEnv. A missing key is only
// reported when the generator is used.
func NewGenerator(cfg Config) *Generator {
	env := cfg.APIKeyEnv
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{apiKey: strings.TrimSpace(os.Getenv(env)), model: model}
}

func (g *Generator) client(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, ErrUnavailable
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// Generate produces a completion for prompt. Ollama-style model names
// (anything without a "gemini" prefix) fall back to the configured model.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(strings.TrimPrefix(model, "models/"), "gemini") {
		model = g.model
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// ListModels returns the models that support generateContent.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	page, err := client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	var names []string
	for _, m := range page.Items {
		if !supportsGenerate(m.SupportedActions) {
			continue
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	if len(names) == 0 {
		return []string{g.model}, nil
	}
	return names, nil
}

func supportsGenerate(actions []string) bool {
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}
