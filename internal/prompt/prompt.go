// Package prompt holds the fixed instruction template sent to the language model.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// Payload is the per-request data stuffed into the template.
type Payload struct {
	Context  string
	Question string
}

// The refusal rules are soft: the model is asked to follow them, nothing here enforces them.
const gitaTemplate = `O Partha,

Task: Answer questions based on the Bhagavad Gita in **English**, using the provided context.

Instructions (abridged):
• Retrieve relevant verses and summarise the key points.
• Mention chapter & verse numbers and quote the shlokas (IAST).
• Begin with “O Partha” and end with “Jai Shri Krishna”.
• Maintain a respectful tone, stay concise, accurate, focused, no programming help, no personal opinions outside the Gita.

If greeted, greet; if thanked, thank; if forced off‑topic, reply “Sorry, Jai Shri Krishna!”.
If unsure, say “I’m not sure yet, please ask something else. Jai Shri Krishna”.

<context>
{{.Context}}
</context>
Question: {{.Question}}
`

// Template fills the instruction text with retrieved context and the question.
type Template struct {
	tmpl *template.Template
}

// Default returns the Bhagavad Gita answering template.
func Default() *Template {
	return &Template{tmpl: template.Must(template.New("gita").Parse(gitaTemplate))}
}

// New parses a custom template. It must reference .Context and .Question.
func New(text string) (*Template, error) {
	if !strings.Contains(text, ".Context") || !strings.Contains(text, ".Question") {
		return nil, fmt.Errorf("prompt template must reference .Context and .Question")
	}
	t, err := template.New("custom").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Template{tmpl: t}, nil
}

// Fill renders the template.
func (t *Template) Fill(p Payload) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, p); err != nil {
		return "", fmt.Errorf("fill prompt: %w", err)
	}
	return sb.String(), nil
}
