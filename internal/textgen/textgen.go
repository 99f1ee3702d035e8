// Package textgen defines the text-generation capability used for field extraction and
// open-ended hotel suggestions.
package textgen

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answered without any text.
var ErrEmptyResponse = errors.New("text generator returned no content")

// Generator turns a prompt into free text. Output is untrusted and may be ill-formed.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts an ordinary function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
