package session

import (
	"context"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/service"
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
}

// Session is the state of one conversation: its transcript plus the shared,
// read-only answering pipeline.
type Session struct {
	ID         string
	transcript Transcript
	asker      Asker
}

// New creates an empty session.
func New(id string, asker Asker) *Session {
	return &Session{ID: id, asker: asker}
}

// Submit records the user's question and runs the answering pipeline.
// The question is recorded even if answering fails. The assistant turn is
// recorded separately by Record once the answer has been shown.
func (s *Session) Submit(ctx context.Context, question string) (service.Answer, error) {
	s.Begin(question)
	return s.Ask(ctx, question)
}

// Begin appends the user's turn without answering it. Callers that answer
// on another goroutine use Begin then Ask so the transcript is only touched
// by the owning goroutine.
func (s *Session) Begin(question string) {
	s.transcript.Append(domain.Turn{Role: domain.RoleUser, Text: question})
}

// Ask runs the answering pipeline; it does not touch the transcript.
func (s *Session) Ask(ctx context.Context, question string) (service.Answer, error) {
	return s.asker.Ask(ctx, question)
}

// Record appends the assistant's answer to the transcript.
func (s *Session) Record(answer string) {
	s.transcript.Append(domain.Turn{Role: domain.RoleAssistant, Text: answer})
}

// Turns returns the transcript in chronological order.
func (s *Session) Turns() []domain.Turn {
	return s.transcript.Turns()
}
