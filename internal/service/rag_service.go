package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/logger"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/prompt"
)

// Answer is the outcome of one question: the completion text, returned
// verbatim, and the passages that were stuffed into the prompt.
type Answer struct {
	Text    string
	Context []domain.Passage
}

// RAGService sequences retrieval, prompt filling and completion.
type RAGService struct {
	retriever domain.Retriever
	template  *prompt.Template
	completer domain.Completer
}

func NewRAGService(retriever domain.Retriever, template *prompt.Template, completer domain.Completer) *RAGService {
	return &RAGService{retriever: retriever, template: template, completer: completer}
}

// Ask answers a question. Input is not validated; an empty question is
// retrieved and completed like any other. Errors are not retried.
func (s *RAGService) Ask(ctx context.Context, question string) (Answer, error) {
	passages, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	filled, err := s.template.Fill(prompt.Payload{
		Context:  StuffPassages(passages),
		Question: question,
	})
	if err != nil {
		return Answer{}, err
	}

	text, err := s.completer.Complete(ctx, filled)
	if err != nil {
		return Answer{}, fmt.Errorf("complete: %w", err)
	}

	logger.FromContext(ctx).Info("question answered",
		zap.Int("passages", len(passages)),
		zap.Int("prompt_chars", len(filled)),
		zap.Int("answer_chars", len(text)),
	)
	return Answer{Text: text, Context: passages}, nil
}

// StuffPassages joins passage texts with a blank line, keeping retrieval order.
func StuffPassages(passages []domain.Passage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}
