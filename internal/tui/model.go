// Package tui is the terminal chat screen.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/service"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/session"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/stream"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/summarizer"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/ui"
)

type state int

const (
	stateLoading state = iota
	stateIdle
	stateThinking
	stateStreaming
)

type (
	loadedMsg struct{ err error }
	answerMsg struct {
		answer service.Answer
		err    error
	}
	tokenMsg struct{}
)

// Config wires a Model to the answering pipeline.
type Config struct {
	Session *session.Session
	// Load builds the pipeline before the first question; nil skips loading.
	Load   func(ctx context.Context) error
	Delay  time.Duration
	Logger *zap.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx     context.Context
	session *session.Session
	load    func(ctx context.Context) error
	delay   time.Duration
	logger  *zap.Logger
	refs    *summarizer.FrequencySummarizer

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	state   state
	stream  *stream.Stream
	answer  service.Answer
	partial string
	status  string
	err     error

	width, height int
	ready         bool
}

func New(ctx context.Context, cfg Config) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = ui.Placeholder
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := Model{
		ctx:      ctx,
		session:  cfg.Session,
		load:     cfg.Load,
		delay:    cfg.Delay,
		logger:   logger,
		refs:     summarizer.NewFrequencySummarizer(),
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		state:    stateIdle,
	}
	if cfg.Load != nil {
		m.state = stateLoading
	}
	return m
}

// Err returns the fatal error that ended the program, if any.
func (m Model) Err() error { return m.err }

// Init starts the cursor blink and, when configured, the pipeline load.
func (m Model) Init() tea.Cmd {
	if m.state != stateLoading {
		return textinput.Blink
	}
	ctx, load := m.ctx, m.load
	return tea.Batch(textinput.Blink, m.spinner.Tick, func() tea.Msg {
		return loadedMsg{err: load(ctx)}
	})
}

// Update handles key, window and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.state != stateIdle {
				return m, nil
			}
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("loading pipeline failed", zap.Error(msg.err))
			return m, tea.Quit
		}
		m.state = stateIdle
		m.status = ""
		return m, nil

	case answerMsg:
		if m.state != stateThinking {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Error("answering failed", zap.Error(msg.err))
			m.state = stateIdle
			m.status = "Error: " + msg.err.Error()
			m.refresh()
			return m, nil
		}
		m.answer = msg.answer
		m.stream = stream.New(msg.answer.Text, m.delay)
		m.partial = ""
		m.state = stateStreaming
		return m.advance()

	case tokenMsg:
		if m.state != stateStreaming {
			return m, nil
		}
		return m.advance()

	case spinner.TickMsg:
		if m.state != stateLoading && m.state != stateThinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := m.input.Value()
	m.input.Reset()
	m.session.Begin(q)
	m.state = stateThinking
	m.status = ""
	m.refresh()

	ctx, sess := m.ctx, m.session
	ask := func() tea.Msg {
		ans, err := sess.Ask(ctx, q)
		return answerMsg{answer: ans, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, ask)
}

// advance shows the next word, or records the answer once the stream is
// exhausted.
func (m Model) advance() (tea.Model, tea.Cmd) {
	tok, ok := m.stream.Next()
	if !ok {
		m.session.Record(m.answer.Text)
		m.state = stateIdle
		m.stream = nil
		m.partial = ""
		m.status = m.sources()
		m.refresh()
		return m, nil
	}
	m.partial += tok
	m.refresh()
	if m.delay <= 0 {
		return m, func() tea.Msg { return tokenMsg{} }
	}
	return m, tea.Tick(m.delay, func(time.Time) tea.Msg { return tokenMsg{} })
}

func (m Model) sources() string {
	refs := m.refs.References(m.answer.Context, 1)
	if len(refs) == 0 {
		return ""
	}
	labels := make([]string, len(refs))
	for i, r := range refs {
		labels[i] = r.Label
	}
	return "Sources: " + strings.Join(labels, ", ")
}

func (m *Model) layout() {
	sw, _ := sidebarStyle.GetFrameSize()
	tw, th := transcriptStyle.GetFrameSize()
	_, ih := inputStyle.GetFrameSize()

	mainWidth := max(20, m.width-sidebarWidth-sw)
	m.viewport.Width = max(10, mainWidth-tw)
	// input box, status line
	m.viewport.Height = max(3, m.height-th-(1+ih)-1)
	m.input.Width = max(10, mainWidth-tw-len(m.input.Prompt)-1)
}

func (m *Model) refresh() {
	content := RenderTranscript(m.session.Turns(), m.viewport.Width)
	if m.state == stateStreaming {
		if content != "" {
			content += "\n\n"
		}
		content += renderTurn(domain.Turn{Role: domain.RoleAssistant, Text: m.partial}, m.viewport.Width)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// View renders the sidebar next to the transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return ui.Loading
	}
	var status string
	switch m.state {
	case stateLoading:
		status = m.spinner.View() + " " + ui.Loading
	case stateThinking:
		status = m.spinner.View() + " " + ui.Thinking
	default:
		status = statusStyle.Render(m.status)
	}
	chat := lipgloss.JoinVertical(lipgloss.Left,
		transcriptStyle.Render(m.viewport.View()),
		inputStyle.Width(m.viewport.Width).Render(m.input.View()),
		status,
	)
	sidebar := sidebarStyle.Width(sidebarWidth).Height(max(1, m.height-2)).Render(RenderSidebar())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chat)
}
