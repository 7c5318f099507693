// Package llm is the text-generation collaborator: a role-tagged request goes
// in, raw text expected to parse as a JSON object comes out.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

// Request is one structured-output generation call
type Request struct {
	Name   string // call label used in logs, e.g. "file", "partial", "merge"
	System string
	User   string
}

// Generator produces raw model text for a request
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrRejected marks a request the provider refused outright, such as an
// oversized payload. Retrying the same input cannot succeed.
var ErrRejected = errors.New("request rejected by model provider")

var rejectionHints = []string{
	"context_length_exceeded",
	"maximum context length",
	"request too large",
	"payload too large",
	"too many tokens",
	"invalid_argument",
}

// IsRejected reports whether err is a request-level rejection rather than a
// transient transport or service failure.
func IsRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRejected) {
		return true
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range rejectionHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
