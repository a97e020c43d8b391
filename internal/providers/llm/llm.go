package llm

import (
	"context"
	"errors"
)

// ErrOverloaded marks the transient "model overloaded" condition (429 /
// resource exhausted). Callers surface it with a distinguishing message and
// do not auto-retry.
var ErrOverloaded = errors.New("model overloaded")

type Provider interface {
	// GenerateJSON runs one prompt and returns the raw JSON text of the
	// model's reply. May take tens of seconds; honor ctx.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Close() error
}
