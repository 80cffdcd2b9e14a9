package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatdoc/internal/domain"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Ask(ctx context.Context, question string) (string, error)
	Models(ctx context.Context) ([]string, error)
	SelectModel(name string)
	SelectedModel() string
	Messages() []domain.Message
	Documents() []domain.Document
}

type pane int

const (
	paneChat pane = iota
	paneDocs
)

type answerMsg struct {
	answer string
	err    error
}

type modelsMsg struct {
	names []string
	err   error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx       context.Context
	service   ChatPort
	input     textinput.Model
	viewport  viewport.Model
	pane      pane
	summary   string
	status    string
	pending   string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance. summary is shown under the header.
func New(ctx context.Context, service ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the document, /model NAME, /models"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Loaded. Tab switches between chat and chunks.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.service.Ask(m.ctx, question)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) listModels() tea.Cmd {
	return func() tea.Msg {
		names, err := m.service.Models(m.ctx)
		return modelsMsg{names: names, err: err}
	}
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around the content and input boxes
		_, rh := contentBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.pending = ""
		if msg.err != nil {
			m.status = "Oops! My circuits got tangled: " + msg.err.Error()
		} else {
			m.status = "Model: " + m.service.SelectedModel()
		}
		m.refresh()
		return m, nil
	case modelsMsg:
		if msg.err != nil {
			m.status = "Error fetching models: " + msg.err.Error()
		} else {
			m.status = "Models: " + strings.Join(msg.names, ", ")
		}
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			if m.pane == paneChat {
				m.pane = paneDocs
			} else {
				m.pane = paneChat
			}
			m.refresh()
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending != "" {
				return m, nil
			}
			m.input.SetValue("")
			if cmd := m.command(q); cmd != nil {
				return m, cmd
			}
			if strings.HasPrefix(q, "/") {
				m.refresh()
				return m, nil
			}
			m.pending = q
			m.lastQuery = q
			m.status = "I am thinking..."
			m.pane = paneChat
			m.refresh()
			return m, m.ask(q)
		case "down":
			if m.pane == paneDocs {
				if n := len(m.service.Documents()); n > 0 {
					m.cursor = (m.cursor + 1) % n
					m.refresh()
				}
				return m, nil
			}
		case "up":
			if m.pane == paneDocs {
				if n := len(m.service.Documents()); n > 0 {
					m.cursor = (m.cursor - 1 + n) % n
					m.refresh()
				}
				return m, nil
			}
		}
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// command handles slash commands. It returns a command to run, or nil when
// the input was handled synchronously or is not a command.
func (m *Model) command(q string) tea.Cmd {
	switch {
	case q == "/models":
		m.status = "Fetching models..."
		return m.listModels()
	case strings.HasPrefix(q, "/model"):
		m.service.SelectModel(strings.TrimSpace(strings.TrimPrefix(q, "/model")))
		m.status = "Model: " + m.service.SelectedModel()
	case strings.HasPrefix(q, "/"):
		m.status = fmt.Sprintf("Unknown command %q", q)
	}
	return nil
}

func (m *Model) refresh() {
	if m.pane == paneDocs {
		m.viewport.SetContent(m.renderCurrentChunk())
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := "Let's Chat"
	if m.pane == paneDocs {
		title = "Doc Information"
	}
	header := lipgloss.NewStyle().Bold(true).Render("chatdoc | " + title)
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	content := contentBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + content + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	msgs := m.service.Messages()
	if len(msgs) == 0 && m.pending == "" {
		return "Ask a question about the uploaded document."
	}
	var b strings.Builder
	for _, msg := range msgs {
		if msg.Role == domain.RoleUser {
			b.WriteString(userStyle.Render("you: ") + msg.Content + "\n\n")
		} else {
			b.WriteString(assistantStyle.Render("assistant: ") + msg.Content + "\n\n")
		}
	}
	if m.pending != "" && (len(msgs) == 0 || msgs[len(msgs)-1].Content != m.pending) {
		b.WriteString(userStyle.Render("you: ") + m.pending + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderCurrentChunk() string {
	docs := m.service.Documents()
	if len(docs) == 0 {
		return "Upload a document to see its content here."
	}
	cursor := m.cursor % len(docs)
	d := docs[cursor]
	title := fmt.Sprintf("Chunk %d/%d  source=%s", cursor+1, len(docs), d.Source())
	body := highlightBestSentence(d.Content, m.lastQuery)
	return title + "\n\n" + body
}

var (
	contentBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	unicodeWordRe   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe      = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence marks the sentence of text sharing the most words
// with query. Without a query the text is returned unchanged.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	bestIdx := 0
	bestScore := 0
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestScore == 0 {
		return text
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
