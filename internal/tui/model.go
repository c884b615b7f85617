// Package tui is the interactive terminal front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"resumerag/internal/embedding"
	"resumerag/internal/presenter"
	"resumerag/internal/summarizer"
)

// AskPort is the TUI-facing subset of the application. Summary and Facts
// are read on every render so a rebuilt record shows up without a restart.
type AskPort interface {
	Ask(ctx context.Context, q string, k int) (presenter.Intent, presenter.Answer, error)
	Summary() string
	Facts() presenter.QuickFacts
}

// Info is the fixed context of a session.
type Info struct {
	Document string
	K        int
}

// Model is the assistant screen state.
type Model struct {
	port      AskPort
	info      Info
	input     textinput.Model
	viewport  viewport.Model
	results   []presenter.UnitView
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New returns a focused model that answers through port.
func New(port AskPort, info Info) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "e.g. What Java experience do you have?"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{port: port, info: info, input: ti, viewport: vp, status: "Ask about experience, skills, or projects!"}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update reacts to resize and key messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		rw, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		sidebar := lipgloss.Width(m.sidebar())
		reserved := 2 + 1 + qh + 1 + 1 // header, summary, query box, status, spacer
		m.viewport.Width = max(20, msg.Width-sidebar-rw-1)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m.ask(q)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) ask(q string) {
	intent, answer, err := m.port.Ask(context.Background(), q, m.info.K)
	m.cursor = 0
	m.lastQuery = q
	switch {
	case err != nil:
		m.status = "Error: " + err.Error()
		m.results = nil
	case intent == presenter.IntentDownload:
		m.status = "Download the resume: " + m.info.Document
		m.results = nil
	default:
		m.results = make([]presenter.UnitView, 0, 1+len(answer.Related))
		if answer.Primary != nil {
			m.results = append(m.results, *answer.Primary)
		}
		m.results = append(m.results, answer.Related...)
		m.status = fmt.Sprintf("Results for %q", q)
	}
}

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Resume Assistant")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.port.Summary())
	results := resultBoxStyle.Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(), " ", results)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) sidebar() string {
	title := lipgloss.NewStyle().Bold(true).Render("Quick Facts")
	return sidebarStyle.Render(title + "\n" + strings.Join(m.port.Facts().Lines(), "\n"))
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		if m.lastQuery != "" && !strings.HasPrefix(m.status, "Error") && !strings.HasPrefix(m.status, "Download") {
			return presenter.NoResults
		}
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := "Most Relevant Answer"
	if m.cursor > 0 {
		title = fmt.Sprintf("Related Match %d", m.cursor)
	}
	title = fmt.Sprintf("%s  (%d/%d, similarity=%.3f)", title, m.cursor+1, len(m.results), r.Similarity)
	body := highlightBestSentence(r.Text, m.lastQuery)
	meta := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(presenter.FormatMetadata(r.Metadata, r.Kind))
	return title + "\n\n" + body + "\n\n" + meta
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sidebarStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestSentence emphasises the line or sentence sharing the most
// tokens with the query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		parts = append(parts, summarizer.Sentences(line)...)
	}
	if len(parts) == 0 {
		return text
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(parts, "\n")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range parts {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestScore > 0 {
		parts[bestIdx] = highlightStyle.Render(parts[bestIdx])
	}
	return strings.Join(parts, "\n")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := embedding.Tokenize(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for tok := range toTokenSet(sentence) {
		if _, ok := queryTokens[tok]; ok {
			score++
		}
	}
	return score
}
