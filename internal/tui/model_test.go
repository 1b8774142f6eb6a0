package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/service"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/session"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/ui"
)

type fakeAsker struct {
	answer service.Answer
	err    error
	asked  []string
}

func (f *fakeAsker) Ask(_ context.Context, q string) (service.Answer, error) {
	f.asked = append(f.asked, q)
	return f.answer, f.err
}

func newModel(t *testing.T, asker *fakeAsker) (Model, *session.Session) {
	t.Helper()
	sess := session.New("tui", asker)
	m := New(context.Background(), Config{Session: sess})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), sess
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

// findAnswer runs the commands returned by submit until the pipeline result
// turns up.
func findAnswer(t *testing.T, cmd tea.Cmd) answerMsg {
	t.Helper()
	require.NotNil(t, cmd)
	switch msg := cmd().(type) {
	case answerMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if a, ok := c().(answerMsg); ok {
				return a
			}
		}
	}
	t.Fatal("no answer message")
	return answerMsg{}
}

// drain feeds token messages until streaming ends.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 1000)
		msg := cmd()
		next, c := m.Update(msg)
		m, cmd = next.(Model), c
	}
	return m
}

func TestSubmit_StreamsAndRecords(t *testing.T) {
	asker := &fakeAsker{answer: service.Answer{
		Text:    "O Partha,  do your   duty. Jai Shri Krishna",
		Context: []domain.Passage{{Chapter: 2, Verse: 47, Text: "You have the right to perform your duties."}},
	}}
	m, sess := newModel(t, asker)
	m = typeText(m, "What is duty?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, stateThinking, m.state)
	assert.Contains(t, m.View(), ui.Thinking)
	require.Len(t, sess.Turns(), 1)
	assert.Empty(t, m.input.Value())

	ans := findAnswer(t, cmd)
	next, cmd = m.Update(ans)
	m = next.(Model)
	assert.Equal(t, stateStreaming, m.state)
	assert.Equal(t, "O ", m.partial)

	m = drain(t, m, cmd)
	assert.Equal(t, stateIdle, m.state)
	assert.Equal(t, "Sources: 2.47", m.status)
	assert.Equal(t, []domain.Turn{
		{Role: domain.RoleUser, Text: "What is duty?"},
		{Role: domain.RoleAssistant, Text: "O Partha,  do your   duty. Jai Shri Krishna"},
	}, sess.Turns())
	assert.Equal(t, []string{"What is duty?"}, asker.asked)
}

func TestSubmit_IgnoredWhileBusy(t *testing.T) {
	asker := &fakeAsker{answer: service.Answer{Text: "ok"}}
	m, sess := newModel(t, asker)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Len(t, sess.Turns(), 1)
}

func TestSubmit_EmptyQuestionIsAsked(t *testing.T) {
	asker := &fakeAsker{answer: service.Answer{Text: "ok"}}
	m, sess := newModel(t, asker)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	findAnswer(t, cmd)

	assert.Equal(t, []string{""}, asker.asked)
	assert.Equal(t, []domain.Turn{{Role: domain.RoleUser, Text: ""}}, sess.Turns())
}

func TestSubmit_ErrorShownWithoutAssistantTurn(t *testing.T) {
	asker := &fakeAsker{err: errors.New("complete: provider down")}
	m, sess := newModel(t, asker)
	m = typeText(m, "hi")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	next, _ = m.Update(findAnswer(t, cmd))
	m = next.(Model)

	assert.Equal(t, stateIdle, m.state)
	assert.Equal(t, "Error: complete: provider down", m.status)
	assert.Len(t, sess.Turns(), 1)
}

func TestLoad_FailureQuits(t *testing.T) {
	sess := session.New("tui", &fakeAsker{})
	loadErr := errors.New("index missing")
	m := New(context.Background(), Config{Session: sess, Load: func(context.Context) error { return loadErr }})
	assert.Equal(t, stateLoading, m.state)

	next, cmd := m.Update(loadedMsg{err: loadErr})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, next.(Model).Err(), loadErr)
}

func TestCtrlCQuits(t *testing.T) {
	m, _ := newModel(t, &fakeAsker{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestRenderTranscript_Idempotent(t *testing.T) {
	turns := []domain.Turn{
		{Role: domain.RoleUser, Text: "What is dharma?"},
		{Role: domain.RoleAssistant, Text: "O Partha, dharma is duty. Jai Shri Krishna"},
	}
	first := RenderTranscript(turns, 40)
	assert.Equal(t, first, RenderTranscript(turns, 40))
	assert.Contains(t, first, "What is dharma?")
	assert.Contains(t, first, ui.UserLabel)
	assert.Contains(t, first, ui.BotLabel)
	assert.Empty(t, RenderTranscript(nil, 40))
}

func TestRenderSidebar(t *testing.T) {
	s := RenderSidebar()
	assert.Contains(t, s, ui.Title)
	assert.Contains(t, s, ui.Disclaimer)
	assert.Contains(t, s, "karma")
}
