package rag

import (
	"errors"
	"fmt"
)

// Input validation errors, surfaced to the HTTP boundary as 400s.
var (
	ErrEmptyInput   = errors.New("input cannot be empty")
	ErrInputTooLong = errors.New("input too long")
)

// ProviderError wraps a failure from the LLM or retrieval dependency.
// Callers surface a generic message; the wrapped detail is for logs only.
type ProviderError struct {
	Stage string // rewrite, retrieval, generation
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
