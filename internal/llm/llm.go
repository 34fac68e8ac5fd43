package llm

import (
	"context"
	"fmt"
)

// Variant names a prompt family.
type Variant string

const (
	VariantATS     Variant = "ats"
	VariantJDMatch Variant = "jd_match"
	VariantRewrite Variant = "rewrite"
)

// Request is a single JSON-mode completion request.
type Request struct {
	Variant     Variant
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer sends one prompt to a provider and returns the raw text of the reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError is returned by providers for non-2xx responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.StatusCode, e.Message)
}
