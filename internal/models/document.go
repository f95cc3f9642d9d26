package models

// Metadata keys stored with every chunk record.
const (
	MetaSource     = "source"
	MetaChunkIndex = "chunk_index"
	MetaCorpus     = "document_type"
	MetaFilePath   = "file_path"
)

// IngestReport summarizes one document ingestion run.
type IngestReport struct {
	Path         string `json:"path"`
	Corpus       Corpus `json:"corpus"`
	TotalChunks  int    `json:"total_chunks"`
	StoredChunks int    `json:"stored_chunks"`
}

// Success reports whether at least one chunk was stored.
func (r *IngestReport) Success() bool {
	return r.StoredChunks > 0
}
