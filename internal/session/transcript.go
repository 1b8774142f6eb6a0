package session

import "github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"

// Transcript is an append-only, chronologically ordered log of turns.
// It is not synchronized; one request at a time touches a transcript.
type Transcript struct {
	turns []domain.Turn
}

// Append adds a turn at the end.
func (t *Transcript) Append(turn domain.Turn) {
	t.turns = append(t.turns, turn)
}

// Turns returns a copy of all turns in insertion order.
func (t *Transcript) Turns() []domain.Turn {
	out := make([]domain.Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int { return len(t.turns) }
