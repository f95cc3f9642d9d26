package models

// SearchResult is one retrieval hit. Distance comes from the vector store on the
// semantic path or is derived from keyword coverage on the keyword path; lower is
// more relevant on both.
type SearchResult struct {
	Content        string            `json:"content"`
	Metadata       map[string]string `json:"metadata"`
	Distance       float64           `json:"distance"`
	Collection     string            `json:"collection"`
	KeywordMatches int               `json:"keyword_matches,omitempty"`
}

// Source returns the originating filename from metadata, or "Unknown".
func (r *SearchResult) Source() string {
	if s, ok := r.Metadata[MetaSource]; ok && s != "" {
		return s
	}
	return "Unknown"
}

// Corpus returns the corpus label from metadata, or "Unknown".
func (r *SearchResult) Corpus() string {
	if s, ok := r.Metadata[MetaCorpus]; ok && s != "" {
		return s
	}
	return "Unknown"
}

// RankedResult is the simplified shape exposed to API consumers.
type RankedResult struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Corpus     string  `json:"document_type"`
	Relevance  float64 `json:"relevance_score"`
	ChunkIndex int     `json:"chunk_index"`
}

// Stats holds per-corpus record counts.
type Stats struct {
	NECDocuments      int64 `json:"nec_documents"`
	WattmonkDocuments int64 `json:"wattmonk_documents"`
	TotalDocuments    int64 `json:"total_documents"`
}
