// Package embedding provides text embedding via the Gemini API, with caching.
package embedding

import "context"

// Task hints the embedding service about how the vector will be used. Ingestion
// embeds documents; search embeds queries. The vector contract is identical
// either way, but setting the right task improves retrieval quality.
type Task string

const (
	TaskDocument Task = "RETRIEVAL_DOCUMENT"
	TaskQuery    Task = "RETRIEVAL_QUERY"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string, task Task) ([]float32, error)
	Dimensions() int
}
