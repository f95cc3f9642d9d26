// Package models defines core data structures for corpora, chunks, search results,
// and chat responses.
package models

import "strings"

// Corpus identifies one of the two fixed document corpora.
type Corpus string

const (
	// CorpusNEC holds electrical-code documents.
	CorpusNEC Corpus = "nec"
	// CorpusWattmonk holds company and product documents.
	CorpusWattmonk Corpus = "wattmonk"
)

// Collection names in the vector store, one per corpus.
const (
	NECCollection      = "nec_documents"
	WattmonkCollection = "wattmonk_documents"
)

// ParseCorpus normalizes a corpus label. Returns ("", false) for anything that is
// not one of the two fixed labels.
func ParseCorpus(s string) (Corpus, bool) {
	switch Corpus(strings.ToLower(strings.TrimSpace(s))) {
	case CorpusNEC:
		return CorpusNEC, true
	case CorpusWattmonk:
		return CorpusWattmonk, true
	}
	return "", false
}

// CollectionName returns the vector-store collection backing the corpus.
func (c Corpus) CollectionName() string {
	if c == CorpusNEC {
		return NECCollection
	}
	return WattmonkCollection
}
