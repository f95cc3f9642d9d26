// Package chat orchestrates the question-answering pipeline: intent
// classification, retrieval, prompt assembly, and generation.
package chat

import "context"

// Generator produces prose from a prompt. It is an external collaborator; its
// internals are opaque to the retrieval core.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
