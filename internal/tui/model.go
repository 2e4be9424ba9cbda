package tui

import (
	"context"
	"fmt"
	"strings"

	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/dto"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ChatPort is the TUI-facing subset of the session service.
type ChatPort interface {
	Messages(ctx context.Context, sessionID string) ([]*dto.ChatMessageDTO, error)
	Chat(ctx context.Context, sessionID string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

type answerMsg struct {
	resp *dto.SendChatResponse
	err  error
}

// Model is the Bubble Tea model of the terminal chat.
type Model struct {
	service     ChatPort
	sessionID   string
	summary     string
	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	messages    []*dto.ChatMessageDTO
	status      string
	waiting     bool
	showSources bool
	ready       bool
}

// New creates the model for an already processed session.
func New(service ChatPort, sessionID, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your document"
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		service:   service,
		sessionID: sessionID,
		summary:   summary,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		status:    "Enter to send · Ctrl+S sources · Ctrl+C quit",
	}
	if msgs, err := service.Messages(context.Background(), sessionID); err == nil {
		m.messages = msgs
	}
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, input line
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlS:
			m.showSources = !m.showSources
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.waiting = true
			m.input.Reset()
			m.messages = append(m.messages, &dto.ChatMessageDTO{Role: constant.ChatMessageRoleUser, Content: q})
			m.status = "Thinking..."
			m.refresh()
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		}

	case answerMsg:
		m.waiting = false
		// the pending question is replaced by the stored turn
		m.messages = m.messages[:len(m.messages)-1]
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.messages = append(m.messages, msg.resp.Question, msg.resp.Answer)
			m.status = fmt.Sprintf("Answered from %d sources", len(msg.resp.Answer.Sources))
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(constant.AppTitle)
	summary := dimStyle.Render(m.summary)
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + m.viewport.View() + "\n" + inputBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.service.Chat(context.Background(), m.sessionID, &dto.SendChatRequest{Question: question})
		return answerMsg{resp: resp, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := max(20, m.viewport.Width-4)
	var b strings.Builder
	for _, msg := range m.messages {
		if msg.Role == constant.ChatMessageRoleUser {
			b.WriteString(userStyle.Width(width).Render("🧑 " + msg.Content))
		} else {
			b.WriteString(assistantStyle.Width(width).Render("🤖 " + msg.Content))
			if m.showSources {
				for i, src := range msg.Sources {
					b.WriteString("\n")
					b.WriteString(sourceStyle.Width(width).Render(fmt.Sprintf("[%d] %s", i+1, excerpt(src.Content, 200))))
				}
			}
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle()
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingLeft(3)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
