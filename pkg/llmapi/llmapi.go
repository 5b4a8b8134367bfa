// Package llmapi defines the client contract for LLM backends and an
// implementation for OpenAI-compatible chat completion APIs.
package llmapi

import (
	"context"
	"errors"
)

// ErrTransport marks network-level failures: the backend was never reached
// or the connection broke mid-request.
var ErrTransport = errors.New("llm transport error")

// ErrBackend marks failures reported by the backend itself (non-2xx
// responses, empty completions). Distinct from configuration errors, which
// never reach the client.
var ErrBackend = errors.New("llm backend error")

// Client sends prompts to an LLM backend. Model names passed to Send must
// already be concrete; the "default" sentinel is resolved by the caller.
type Client interface {
	// Send submits a single-turn prompt and returns the raw completion text.
	// A temperature of 0 leaves the backend's default in effect.
	Send(ctx context.Context, prompt, model string, temperature float64) (string, error)

	// ListModels returns the identifiers of all models the backend offers.
	// An empty slice means none are available.
	ListModels(ctx context.Context) ([]string, error)
}
