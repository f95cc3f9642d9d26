package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/embedding"
	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/store"
)

func seedSemantic(t *testing.T, embedder embedding.Embedder, contents map[models.Corpus][]string) *store.Collections {
	t.Helper()
	c, err := store.NewMemoryCollections(embedder.Dimensions())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for corpus, texts := range contents {
		col := c.ForCorpus(corpus)
		for i, text := range texts {
			vector, err := embedder.Embed(ctx, text, embedding.TaskDocument)
			if err != nil {
				t.Fatal(err)
			}
			rec := store.Record{
				ID:      fmt.Sprintf("%s-%d", corpus, i),
				Vector:  vector,
				Content: text,
				Metadata: map[string]string{
					models.MetaCorpus: string(corpus),
				},
			}
			if err := col.Add(ctx, rec); err != nil {
				t.Fatal(err)
			}
		}
	}
	return c
}

func TestSemantic_Search(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	c := seedSemantic(t, embedder, map[models.Corpus][]string{
		models.CorpusNEC: {
			"grounding electrode conductors must be continuous",
			"luminaires in wet locations need proper enclosures",
		},
		models.CorpusWattmonk: {
			"wattmonk delivers solar permit design services",
		},
	})
	s := NewSemantic(embedder, c, zap.NewNop())

	results := s.Search(context.Background(), "grounding electrode conductors must be continuous", nil, 3)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Content != "grounding electrode conductors must be continuous" {
		t.Errorf("top result = %q", results[0].Content)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Error("results should sort ascending by distance")
		}
	}
}

func TestSemantic_CorpusFilter(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	c := seedSemantic(t, embedder, map[models.Corpus][]string{
		models.CorpusNEC:      {"grounding electrode conductors"},
		models.CorpusWattmonk: {"grounding as a wattmonk service note"},
	})
	s := NewSemantic(embedder, c, zap.NewNop())

	nec := models.CorpusNEC
	results := s.Search(context.Background(), "grounding", &nec, 5)
	for _, res := range results {
		if res.Collection != string(models.CorpusNEC) {
			t.Errorf("filter leaked: result from %q", res.Collection)
		}
	}
}

func TestSemantic_EmptyCollections(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	c, err := store.NewMemoryCollections(embedder.Dimensions())
	if err != nil {
		t.Fatal(err)
	}
	s := NewSemantic(embedder, c, zap.NewNop())
	if results := s.Search(context.Background(), "anything", nil, 5); len(results) != 0 {
		t.Errorf("empty collections should yield no results, got %d", len(results))
	}
}

func TestSemantic_KLargerThanCollection(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	c := seedSemantic(t, embedder, map[models.Corpus][]string{
		models.CorpusNEC: {"one lonely record about conductors"},
	})
	s := NewSemantic(embedder, c, zap.NewNop())
	results := s.Search(context.Background(), "conductors", nil, 10)
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

type erroringEmbedder struct{}

func (erroringEmbedder) Embed(ctx context.Context, text string, task embedding.Task) ([]float32, error) {
	return nil, errors.New("embedding unavailable")
}

func (erroringEmbedder) Dimensions() int { return 64 }

func TestSemantic_FailsClosed(t *testing.T) {
	c, err := store.NewMemoryCollections(64)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSemantic(erroringEmbedder{}, c, zap.NewNop())
	if results := s.Search(context.Background(), "anything", nil, 5); results != nil {
		t.Errorf("embedding failure should yield nil results, got %v", results)
	}
}
