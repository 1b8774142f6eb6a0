// Package stream paces an already computed answer as a sequence of words.
package stream

import (
	"bufio"
	"context"
	"strings"
	"time"
)

// DefaultDelay is the pause between two emitted words.
const DefaultDelay = 30 * time.Millisecond

// Stream is a lazy, finite, non-restartable sequence of word tokens. Each
// token is one whitespace-delimited word followed by a single space.
// A Stream is not safe for concurrent use.
type Stream struct {
	scanner *bufio.Scanner
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	done    bool
	emitted int
}

// Option customizes a Stream.
type Option func(*Stream)

// WithSleep replaces the pause implementation, e.g. with a recorder in tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Stream) { s.sleep = sleep }
}

// New creates a stream over text. A zero delay emits without pausing.
func New(text string, delay time.Duration, opts ...Option) *Stream {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64), len(text)+1)
	sc.Split(bufio.ScanWords)
	s := &Stream{scanner: sc, delay: delay, sleep: sleepCtx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the pause between tokens.
func (s *Stream) Delay() time.Duration { return s.delay }

// Emitted returns how many tokens have been produced so far.
func (s *Stream) Emitted() int { return s.emitted }

// Next returns the next token without pausing; callers that schedule the
// pacing themselves (a UI tick loop) use it. ok is false once exhausted, and
// stays false.
func (s *Stream) Next() (token string, ok bool) {
	if s.done {
		return "", false
	}
	if !s.scanner.Scan() {
		s.done = true
		return "", false
	}
	s.emitted++
	return s.scanner.Text() + " ", true
}

// Emit hands every remaining token to fn, pausing Delay between tokens.
// It stops early when fn fails or ctx is cancelled.
func (s *Stream) Emit(ctx context.Context, fn func(token string) error) error {
	first := true
	for {
		tok, ok := s.Next()
		if !ok {
			return nil
		}
		if !first && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return err
			}
		}
		first = false
		if err := fn(tok); err != nil {
			return err
		}
	}
}

// Collect drains the stream without pausing and returns all tokens.
func (s *Stream) Collect() []string {
	var out []string
	for {
		tok, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
