package models

// IntentLabel is the corpus (or none) selected for a query prior to retrieval.
type IntentLabel string

const (
	IntentGeneral  IntentLabel = "general"
	IntentNEC      IntentLabel = "nec"
	IntentWattmonk IntentLabel = "wattmonk"
)

// Intent is the result of classifying a query. CorpusFilter is nil for general
// queries, which skip retrieval entirely.
type Intent struct {
	Label        IntentLabel `json:"intent"`
	Confidence   int         `json:"confidence"`
	CorpusFilter *Corpus     `json:"document_type,omitempty"`
}
