package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/config"
	"github.com/wattmonk/ragchat/internal/models"
)

// dedupPrefixLen is the near-duplicate signature length: two results sharing
// the same opening characters are treated as the same chunk.
const dedupPrefixLen = 100

// Retriever decides per query whether keyword search supplements semantic
// search, and deduplicates the combined result set.
type Retriever struct {
	semantic *Semantic
	keyword  *Keyword
	cfg      *config.RetrievalConfig
	logger   *zap.Logger
}

// NewRetriever creates a retriever with the given searchers and tuning.
func NewRetriever(semantic *Semantic, keyword *Keyword, cfg *config.RetrievalConfig, logger *zap.Logger) *Retriever {
	return &Retriever{semantic: semantic, keyword: keyword, cfg: cfg, logger: logger}
}

// Retrieve runs semantic search, then keyword search when the policy calls for
// it: always for high-priority terms, and for specific terms when semantic
// search came back thin. Keyword hits are prepended so they win ties during
// dedup. The merged list is deduplicated on the leading content prefix and
// truncated to k.
func (r *Retriever) Retrieve(ctx context.Context, query string, filter *models.Corpus, k int) []models.SearchResult {
	semantic := r.semantic.Search(ctx, query, filter, k)

	queryLower := strings.ToLower(query)
	runKeyword := false
	switch {
	case containsAny(queryLower, r.cfg.HighPriorityTerms):
		runKeyword = true
		r.logger.Debug("high priority term detected, running keyword search",
			zap.String("query", query))
	case containsAny(queryLower, r.cfg.SpecificTerms) && len(semantic) < r.cfg.KeywordTriggerBelow:
		runKeyword = true
		r.logger.Debug("specific term with thin semantic results, running keyword search",
			zap.String("query", query), zap.Int("semantic_results", len(semantic)))
	}
	if !runKeyword {
		return semantic
	}

	keyword := r.keyword.Search(ctx, query, filter, k)
	combined := make([]models.SearchResult, 0, len(keyword)+len(semantic))
	combined = append(combined, keyword...)
	combined = append(combined, semantic...)
	merged := DedupByPrefix(combined)
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}

// DedupByPrefix keeps the first occurrence of each distinct content prefix.
func DedupByPrefix(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]models.SearchResult, 0, len(results))
	for _, res := range results {
		key := res.Content
		if len(key) > dedupPrefixLen {
			key = key[:dedupPrefixLen]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, res)
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
