package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryCollection is an in-memory collection using brute-force cosine search.
// Suitable for tests and as a degraded mode when the vector store is unreachable.
type MemoryCollection struct {
	dimensions int
	ids        []string
	records    map[string]Record
	mu         sync.RWMutex
}

// NewMemoryCollection creates an in-memory collection with the given dimension.
func NewMemoryCollection(dimensions int) (*MemoryCollection, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryCollection{
		dimensions: dimensions,
		records:    make(map[string]Record),
	}, nil
}

// NewMemoryCollections returns a Collections pair backed by memory.
func NewMemoryCollections(dimensions int) (*Collections, error) {
	nec, err := NewMemoryCollection(dimensions)
	if err != nil {
		return nil, err
	}
	wm, err := NewMemoryCollection(dimensions)
	if err != nil {
		return nil, err
	}
	return &Collections{NEC: nec, Wattmonk: wm}, nil
}

// Add upserts a record by ID.
func (m *MemoryCollection) Add(ctx context.Context, rec Record) error {
	if len(rec.Vector) != m.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(rec.Vector), m.dimensions)
	}
	if rec.ID == "" {
		return fmt.Errorf("record ID must not be empty")
	}
	vec := make([]float32, m.dimensions)
	copy(vec, rec.Vector)
	rec.Vector = vec

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; !exists {
		m.ids = append(m.ids, rec.ID)
	}
	m.records[rec.ID] = rec
	return nil
}

// Query returns the up-to-k nearest records by cosine distance (1 - cosine
// similarity), ascending.
func (m *MemoryCollection) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if len(vector) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	results := make([]Result, 0, len(m.ids))
	for _, id := range m.ids {
		rec := m.records[id]
		results = append(results, Result{
			ID:       rec.ID,
			Content:  rec.Content,
			Metadata: rec.Metadata,
			Distance: 1 - cosineSimilarity(vector, rec.Vector),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// GetAll returns every record in insertion order.
func (m *MemoryCollection) GetAll(ctx context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.records[id])
	}
	return out, nil
}

// Count returns the number of records.
func (m *MemoryCollection) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.ids)), nil
}

// cosineSimilarity returns the cosine similarity of two vectors, clamped to [0,1].
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim))
}
