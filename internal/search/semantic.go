// Package search provides semantic search, keyword search, and the merge policy
// that decides what context reaches the generator.
package search

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/embedding"
	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/store"
)

// Semantic runs embedding-based nearest-neighbor search over the corpus
// collections.
type Semantic struct {
	embedder    embedding.Embedder
	collections *store.Collections
	logger      *zap.Logger
}

// NewSemantic creates a semantic searcher.
func NewSemantic(embedder embedding.Embedder, collections *store.Collections, logger *zap.Logger) *Semantic {
	return &Semantic{embedder: embedder, collections: collections, logger: logger}
}

// Search embeds the query and returns up to k hits across the selected
// collections, ascending by distance. It fails closed: if the query cannot be
// embedded the result is empty, and a collection that errors or is empty is
// skipped rather than failing the search.
func (s *Semantic) Search(ctx context.Context, query string, filter *models.Corpus, k int) []models.SearchResult {
	vector, err := s.embedder.Embed(ctx, query, embedding.TaskQuery)
	if err != nil || len(vector) == 0 {
		s.logger.Warn("query embedding failed", zap.Error(err))
		return nil
	}

	var results []models.SearchResult
	for _, named := range s.collections.Select(filter) {
		count, err := named.Collection.Count(ctx)
		if err != nil {
			s.logger.Warn("count failed, skipping collection",
				zap.String("corpus", string(named.Corpus)), zap.Error(err))
			continue
		}
		if count == 0 {
			continue
		}
		n := k
		if int64(n) > count {
			n = int(count)
		}
		hits, err := named.Collection.Query(ctx, vector, n)
		if err != nil {
			s.logger.Warn("vector query failed, skipping collection",
				zap.String("corpus", string(named.Corpus)), zap.Error(err))
			continue
		}
		for _, h := range hits {
			results = append(results, models.SearchResult{
				Content:    h.Content,
				Metadata:   h.Metadata,
				Distance:   h.Distance,
				Collection: string(named.Corpus),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
