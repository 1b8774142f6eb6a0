package domain

import "errors"

var (
	// ErrProvider signals a failure reported by an external model provider.
	ErrProvider = errors.New("provider error")
	// ErrEmptyResponse signals a provider reply without usable content.
	ErrEmptyResponse = errors.New("empty provider response")
	// ErrDimensionMismatch signals a query vector that does not fit the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexNotFound signals a missing persisted index.
	ErrIndexNotFound = errors.New("index not found")
)
