package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdoc/internal/domain"
)

type fakeChat struct {
	model    string
	messages []domain.Message
	docs     []domain.Document
	err      error
}

func (f *fakeChat) Ask(_ context.Context, q string) (string, error) {
	f.messages = append(f.messages, domain.Message{Role: domain.RoleUser, Content: q})
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, domain.Message{Role: domain.RoleAssistant, Content: "42"})
	return "42", nil
}

func (f *fakeChat) Models(context.Context) ([]string, error) { return []string{"a", "b"}, nil }
func (f *fakeChat) SelectModel(name string)                  { f.model = name }
func (f *fakeChat) SelectedModel() string                    { return f.model }
func (f *fakeChat) Messages() []domain.Message               { return f.messages }
func (f *fakeChat) Documents() []domain.Document             { return f.docs }

func sized(t *testing.T, svc ChatPort) Model {
	t.Helper()
	m, _ := New(context.Background(), svc, "summary").Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m.(Model)
}

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestAskRoundTrip(t *testing.T) {
	svc := &fakeChat{model: "llama3.2:latest"}
	m := sized(t, svc)

	m, cmd := typeAndEnter(t, m, "meaning of life?")
	require.NotNil(t, cmd)
	assert.Equal(t, "meaning of life?", m.pending)
	assert.Contains(t, m.renderTranscript(), "meaning of life?")

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Empty(t, m.pending)
	assert.Contains(t, m.renderTranscript(), "42")
	assert.Contains(t, m.status, "llama3.2:latest")
}

func TestAskErrorShowsStatus(t *testing.T) {
	svc := &fakeChat{err: errors.New("generation failed")}
	m := sized(t, svc)
	m, cmd := typeAndEnter(t, m, "q")
	next, _ := m.Update(cmd())
	assert.Contains(t, next.(Model).status, "generation failed")
}

func TestSlashCommands(t *testing.T) {
	svc := &fakeChat{}
	m := sized(t, svc)

	m, cmd := typeAndEnter(t, m, "/model mistral:7b")
	assert.Nil(t, cmd)
	assert.Equal(t, "mistral:7b", svc.model)

	m, cmd = typeAndEnter(t, m, "/models")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	assert.Equal(t, "Models: a, b", next.(Model).status)
}

func TestChunkPaneCycles(t *testing.T) {
	svc := &fakeChat{docs: []domain.Document{
		domain.NewDocument("first chunk", "a.txt"),
		domain.NewDocument("second chunk", "a.txt"),
	}}
	m := sized(t, svc)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Contains(t, m.renderCurrentChunk(), "Chunk 1/2")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderCurrentChunk(), "second chunk")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Contains(t, next.(Model).renderCurrentChunk(), "first chunk")
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Cats sleep. Dogs bark loudly."
	out := highlightBestSentence(text, "why do dogs bark")
	assert.Contains(t, out, "Cats sleep.")
	assert.Contains(t, out, "Dogs bark loudly.")
	assert.Equal(t, text, highlightBestSentence(text, ""))
	assert.Equal(t, text, highlightBestSentence(text, "zebras"))
}
