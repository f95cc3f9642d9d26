package store

import (
	"context"
	"testing"

	"github.com/wattmonk/ragchat/internal/models"
)

func vec(dims int, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1
	return v
}

func TestMemoryCollection_AddAndCount(t *testing.T) {
	m, err := NewMemoryCollection(4)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := m.Add(ctx, Record{ID: "a", Vector: vec(4, 0), Content: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(ctx, Record{ID: "b", Vector: vec(4, 1), Content: "second"}); err != nil {
		t.Fatal(err)
	}
	count, _ := m.Count(ctx)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestMemoryCollection_UpsertSameID(t *testing.T) {
	m, _ := NewMemoryCollection(4)
	ctx := context.Background()
	m.Add(ctx, Record{ID: "a", Vector: vec(4, 0), Content: "old"})
	m.Add(ctx, Record{ID: "a", Vector: vec(4, 1), Content: "new"})
	count, _ := m.Count(ctx)
	if count != 1 {
		t.Errorf("upsert should not duplicate, count = %d", count)
	}
	records, _ := m.GetAll(ctx)
	if records[0].Content != "new" {
		t.Errorf("record content = %q, want new", records[0].Content)
	}
}

func TestMemoryCollection_RejectsBadRecords(t *testing.T) {
	m, _ := NewMemoryCollection(4)
	ctx := context.Background()
	if err := m.Add(ctx, Record{ID: "a", Vector: vec(8, 0)}); err == nil {
		t.Error("dimension mismatch should fail")
	}
	if err := m.Add(ctx, Record{ID: "", Vector: vec(4, 0)}); err == nil {
		t.Error("empty ID should fail")
	}
}

func TestMemoryCollection_QueryOrdering(t *testing.T) {
	m, _ := NewMemoryCollection(4)
	ctx := context.Background()
	m.Add(ctx, Record{ID: "exact", Vector: []float32{1, 0, 0, 0}, Content: "exact"})
	m.Add(ctx, Record{ID: "close", Vector: []float32{1, 1, 0, 0}, Content: "close"})
	m.Add(ctx, Record{ID: "far", Vector: []float32{0, 0, 1, 0}, Content: "far"})

	results, err := m.Query(ctx, []float32{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].ID != "exact" || results[1].ID != "close" || results[2].ID != "far" {
		t.Errorf("unexpected order: %s, %s, %s", results[0].ID, results[1].ID, results[2].ID)
	}
	if results[0].Distance > results[1].Distance || results[1].Distance > results[2].Distance {
		t.Error("distances should be ascending")
	}
	if results[0].Distance > 1e-6 {
		t.Errorf("identical vector should have near-zero distance, got %f", results[0].Distance)
	}
}

func TestMemoryCollection_QueryClampsK(t *testing.T) {
	m, _ := NewMemoryCollection(4)
	ctx := context.Background()
	m.Add(ctx, Record{ID: "a", Vector: vec(4, 0)})
	results, err := m.Query(ctx, vec(4, 0), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("k beyond size should clamp, got %d results", len(results))
	}
}

func TestMemoryCollection_QueryEmpty(t *testing.T) {
	m, _ := NewMemoryCollection(4)
	results, err := m.Query(context.Background(), vec(4, 0), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty collection should return no results, got %d", len(results))
	}
}

func TestCollections_Select(t *testing.T) {
	c, err := NewMemoryCollections(4)
	if err != nil {
		t.Fatal(err)
	}
	both := c.Select(nil)
	if len(both) != 2 {
		t.Fatalf("nil filter should select both collections, got %d", len(both))
	}
	if both[0].Collection != c.NEC || both[1].Collection != c.Wattmonk {
		t.Error("selection order should be NEC then Wattmonk")
	}

	nec := models.CorpusNEC
	only := c.Select(&nec)
	if len(only) != 1 || only[0].Collection != c.NEC {
		t.Error("nec filter should select only the NEC collection")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if sim := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); sim != 1 {
		t.Errorf("identical vectors similarity = %f, want 1", sim)
	}
	if sim := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); sim != 0 {
		t.Errorf("orthogonal vectors similarity = %f, want 0", sim)
	}
	if sim := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); sim != 0 {
		t.Errorf("zero vector similarity = %f, want 0", sim)
	}
}
