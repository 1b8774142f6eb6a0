package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/ui"
)

const sidebarWidth = 32

var (
	sidebarStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sampleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Italic(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// RenderTranscript draws every turn in order, tagged with its role. It is a
// pure function of its arguments.
func RenderTranscript(turns []domain.Turn, width int) string {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = renderTurn(t, width)
	}
	return strings.Join(parts, "\n\n")
}

func renderTurn(t domain.Turn, width int) string {
	label := botStyle.Render(ui.BotLabel)
	if t.Role == domain.RoleUser {
		label = userStyle.Render(ui.UserLabel)
	}
	body := lipgloss.NewStyle()
	if width > 0 {
		body = body.Width(width)
	}
	return label + "\n" + body.Render(t.Text)
}

// RenderSidebar draws the static title, sample questions and disclaimer.
func RenderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(ui.Title))
	b.WriteString("\n\n")
	b.WriteString(ui.SamplesHead)
	b.WriteString("\n")
	for _, q := range ui.SampleQuestions {
		b.WriteString(sampleStyle.Width(sidebarWidth).Render("• " + q))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(ui.Disclaimer))
	return b.String()
}
