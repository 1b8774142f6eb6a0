// Package ui holds the text shared by the terminal and browser screens.
package ui

const (
	Title       = "Bhagavad Gita GPT 📖"
	SamplesHead = "Sample questions:"
	Disclaimer  = "Model can err — verify verses."
	Placeholder = "Ask your Gita question…"
	Loading     = "🔄 Loading embedding vectors…"
	Thinking    = "🤔 Thinking…"
	UserLabel   = "You"
	BotLabel    = "Gita GPT"
)

// SampleQuestions are shown in the sidebar.
var SampleQuestions = []string{
	"What is the significance of the Kṣetra–Kṣetreśvara concept?",
	"How does the Gita reconcile karma and free will?",
	"Explain Jñāna Yoga vs Karma Yoga.",
}

// MissingCredential is the startup error for an unset API key variable.
func MissingCredential(name string) string {
	return "⚠️ " + name + " missing in .env"
}
