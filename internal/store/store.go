// Package store provides the per-corpus collection abstraction over the vector
// index, with Qdrant-backed and in-memory implementations.
package store

import (
	"context"

	"github.com/wattmonk/ragchat/internal/models"
)

// Record is the persisted unit: one embedded chunk with its metadata.
type Record struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata map[string]string
}

// Result is one nearest-neighbor hit. Distance is the store's native metric
// converted so that lower means more relevant.
type Result struct {
	ID       string
	Content  string
	Metadata map[string]string
	Distance float64
}

// Collection is one independently indexed corpus collection.
type Collection interface {
	// Add upserts one record. Re-adding the same ID overwrites.
	Add(ctx context.Context, rec Record) error
	// Query returns up to k nearest records by distance, fewer if the collection
	// holds fewer than k.
	Query(ctx context.Context, vector []float32, k int) ([]Result, error)
	// GetAll returns every record. This is a linear scan of the collection and is
	// not cheap at scale; it exists for keyword search only.
	GetAll(ctx context.Context) ([]Record, error)
	// Count returns the number of records.
	Count(ctx context.Context) (int64, error)
}

// Collections holds the two fixed corpus collections.
type Collections struct {
	NEC      Collection
	Wattmonk Collection
}

// Named pairs a collection with its corpus for search tagging.
type Named struct {
	Corpus     models.Corpus
	Collection Collection
}

// ForCorpus returns the collection backing the corpus.
func (c *Collections) ForCorpus(corpus models.Corpus) Collection {
	if corpus == models.CorpusNEC {
		return c.NEC
	}
	return c.Wattmonk
}

// Select returns the collections a search should cover: both when filter is nil,
// otherwise just the filtered corpus. NEC always precedes Wattmonk.
func (c *Collections) Select(filter *models.Corpus) []Named {
	if filter != nil {
		return []Named{{Corpus: *filter, Collection: c.ForCorpus(*filter)}}
	}
	return []Named{
		{Corpus: models.CorpusNEC, Collection: c.NEC},
		{Corpus: models.CorpusWattmonk, Collection: c.Wattmonk},
	}
}
