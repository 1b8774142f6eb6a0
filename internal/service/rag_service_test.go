package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/prompt"
)

type stubRetriever struct {
	passages []domain.Passage
	err      error
	calls    []string
}

func (s *stubRetriever) Retrieve(_ context.Context, q string) ([]domain.Passage, error) {
	s.calls = append(s.calls, q)
	return s.passages, s.err
}

type recordingCompleter struct {
	answer  string
	err     error
	prompts []string
}

func (r *recordingCompleter) Complete(_ context.Context, p string) (string, error) {
	r.prompts = append(r.prompts, p)
	return r.answer, r.err
}

func TestAsk_EndToEnd(t *testing.T) {
	passage := "Chapter 2 Verse 47: You have the right to perform your duties..."
	ret := &stubRetriever{passages: []domain.Passage{{Text: passage, Chapter: 2, Verse: 47}}}
	answer := "  O Partha, act without attachment to results.\n\nJai Shri Krishna  "
	comp := &recordingCompleter{answer: answer}
	svc := NewRAGService(ret, prompt.Default(), comp)

	got, err := svc.Ask(context.Background(), "What is the Gita's view on duty?")
	require.NoError(t, err)

	require.Len(t, comp.prompts, 1)
	assert.Contains(t, comp.prompts[0], "<context>\n"+passage+"\n</context>")
	assert.Contains(t, comp.prompts[0], "Question: What is the Gita's view on duty?")
	assert.Equal(t, answer, got.Text)
	assert.Equal(t, ret.passages, got.Context)
}

func TestAsk_EmptyQuestionStillFlows(t *testing.T) {
	ret := &stubRetriever{}
	comp := &recordingCompleter{answer: "Sorry, Jai Shri Krishna!"}
	svc := NewRAGService(ret, prompt.Default(), comp)

	got, err := svc.Ask(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, ret.calls)
	assert.Len(t, comp.prompts, 1)
	assert.Equal(t, "Sorry, Jai Shri Krishna!", got.Text)
}

func TestAsk_PropagatesErrors(t *testing.T) {
	boom := errors.New("network down")

	comp := &recordingCompleter{}
	_, err := NewRAGService(&stubRetriever{err: boom}, prompt.Default(), comp).Ask(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, comp.prompts, "completion must not run after a failed retrieval")

	_, err = NewRAGService(&stubRetriever{}, prompt.Default(), &recordingCompleter{err: boom}).Ask(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestStuffPassages(t *testing.T) {
	assert.Equal(t, "", StuffPassages(nil))
	assert.Equal(t, "a\n\nb\n\nc", StuffPassages([]domain.Passage{{Text: "a"}, {Text: "b"}, {Text: "c"}}))
}
