package web

import (
	_ "embed"
	"html/template"
	"io"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/ui"
)

//go:embed templates/index.html
var pageTemplate string

// TurnView is one rendered transcript entry.
type TurnView struct {
	Class string
	Label string
	Text  string
}

// Page is the data behind the chat page.
type Page struct {
	Title       string
	SamplesHead string
	Samples     []string
	Disclaimer  string
	Placeholder string
	Thinking    string
	BotLabel    string
	UserLabel   string
	Turns       []TurnView
}

// Renderer draws the chat page.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("index").Parse(pageTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page for a transcript. The output depends only on the
// transcript.
func (r *Renderer) Render(w io.Writer, turns []domain.Turn) error {
	return r.tmpl.Execute(w, NewPage(turns))
}

// NewPage builds the page data: static sidebar plus every turn in order.
func NewPage(turns []domain.Turn) Page {
	p := Page{
		Title:       ui.Title,
		SamplesHead: ui.SamplesHead,
		Samples:     ui.SampleQuestions,
		Disclaimer:  ui.Disclaimer,
		Placeholder: ui.Placeholder,
		Thinking:    ui.Thinking,
		BotLabel:    ui.BotLabel,
		UserLabel:   ui.UserLabel,
		Turns:       make([]TurnView, len(turns)),
	}
	for i, t := range turns {
		v := TurnView{Class: "assistant", Label: ui.BotLabel, Text: t.Text}
		if t.Role == domain.RoleUser {
			v = TurnView{Class: "user", Label: ui.UserLabel, Text: t.Text}
		}
		p.Turns[i] = v
	}
	return p
}
