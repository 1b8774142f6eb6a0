package app

import (
	"context"
	"sync"
)

// Lazy builds a value on first use and memoizes it. A failed build is not
// memoized; the next Get tries again.
type Lazy[T any] struct {
	mu    sync.Mutex
	build func(ctx context.Context) (T, error)
	val   T
	ok    bool
}

// NewLazy wraps a constructor.
func NewLazy[T any](build func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Get returns the memoized value, building it if needed.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ok {
		return l.val, nil
	}
	v, err := l.build(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.val, l.ok = v, true
	return v, nil
}

// Built reports whether the value has been constructed.
func (l *Lazy[T]) Built() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ok
}
