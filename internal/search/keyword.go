package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/store"
)

// minKeywordLength filters out short stop-word-like tokens without needing a
// stop-word list.
const minKeywordLength = 2

// Keyword scans stored records for literal keyword overlap. It reads every
// record in the selected collections, so its cost is linear in corpus size; it
// exists as a fallback/boost for terms embeddings handle poorly.
type Keyword struct {
	collections *store.Collections
	logger      *zap.Logger
}

// NewKeyword creates a keyword searcher.
func NewKeyword(collections *store.Collections, logger *zap.Logger) *Keyword {
	return &Keyword{collections: collections, logger: logger}
}

// ExtractKeywords lower-cases the query, splits on whitespace, and keeps tokens
// longer than two characters.
func ExtractKeywords(query string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > minKeywordLength {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// Search scores every record in the selected collections by how many query
// keywords occur in its lower-cased text. Records with zero matches are
// excluded. The pseudo-distance is 1 - matches/keywords, so full coverage
// scores 0 and results merge onto the same ascending-distance scale as
// semantic hits. Results sort by descending match count, then ascending
// pseudo-distance, and are truncated to k. A collection that fails to scan is
// skipped.
func (s *Keyword) Search(ctx context.Context, query string, filter *models.Corpus, k int) []models.SearchResult {
	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	var results []models.SearchResult
	for _, named := range s.collections.Select(filter) {
		records, err := named.Collection.GetAll(ctx)
		if err != nil {
			s.logger.Warn("keyword scan failed, skipping collection",
				zap.String("corpus", string(named.Corpus)), zap.Error(err))
			continue
		}
		for _, rec := range records {
			text := strings.ToLower(rec.Content)
			matches := 0
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					matches++
				}
			}
			if matches == 0 {
				continue
			}
			results = append(results, models.SearchResult{
				Content:        rec.Content,
				Metadata:       rec.Metadata,
				Distance:       1 - float64(matches)/float64(len(keywords)),
				Collection:     string(named.Corpus),
				KeywordMatches: matches,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].KeywordMatches != results[j].KeywordMatches {
			return results[i].KeywordMatches > results[j].KeywordMatches
		}
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
