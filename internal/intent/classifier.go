// Package intent routes a query to a corpus by scoring it against two fixed
// keyword vocabularies. This is a deliberate heuristic, not a statistical
// classifier; its scoring and tie-break rules are a behavioral contract.
package intent

import (
	"strings"

	"github.com/wattmonk/ragchat/internal/config"
	"github.com/wattmonk/ragchat/internal/models"
)

// Classifier scores queries against the configured vocabularies. Classification
// is a pure function of the query string; no state persists between calls.
type Classifier struct {
	cfg *config.IntentConfig
}

// NewClassifier creates a classifier with the given vocabularies.
func NewClassifier(cfg *config.IntentConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify counts case-insensitive substring matches against each corpus
// vocabulary. The strictly higher nonzero count wins with confidence equal to
// the count. On a tie (including both zero) the anchor terms are checked, each
// forcing its corpus with confidence 1; NEC anchors are checked first. If
// nothing matches the query is general with confidence 0 and retrieval is
// skipped upstream.
func (c *Classifier) Classify(query string) models.Intent {
	queryLower := strings.ToLower(query)

	necScore := countMatches(queryLower, c.cfg.NECKeywords)
	wattmonkScore := countMatches(queryLower, c.cfg.WattmonkKeywords)

	switch {
	case necScore > wattmonkScore && necScore > 0:
		return corpusIntent(models.IntentNEC, necScore, models.CorpusNEC)
	case wattmonkScore > necScore && wattmonkScore > 0:
		return corpusIntent(models.IntentWattmonk, wattmonkScore, models.CorpusWattmonk)
	case containsAny(queryLower, c.cfg.NECAnchors):
		return corpusIntent(models.IntentNEC, 1, models.CorpusNEC)
	case containsAny(queryLower, c.cfg.WattmonkAnchors):
		return corpusIntent(models.IntentWattmonk, 1, models.CorpusWattmonk)
	}
	return models.Intent{Label: models.IntentGeneral, Confidence: 0}
}

func corpusIntent(label models.IntentLabel, confidence int, corpus models.Corpus) models.Intent {
	return models.Intent{Label: label, Confidence: confidence, CorpusFilter: &corpus}
}

func countMatches(s string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(s, t) {
			n++
		}
	}
	return n
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
