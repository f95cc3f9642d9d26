// Package ingest provides document chunking and the ingestion pipeline.
package ingest

import "strings"

// Chunker splits text into overlapping, size-bounded character chunks aligned to
// sentence or paragraph boundaries where possible.
type Chunker struct {
	chunkSize     int
	chunkOverlap  int
	maxChunks     int
	minLength     int
	maxTextLength int
}

// NewChunker creates a chunker. chunkSize and chunkOverlap are in characters;
// maxChunks caps the number of chunks produced; candidates shorter than minLength
// after trimming are discarded; input longer than maxTextLength is truncated
// before chunking (lossy but bounded).
func NewChunker(chunkSize, chunkOverlap, maxChunks, minLength, maxTextLength int) *Chunker {
	return &Chunker{
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
		maxChunks:     maxChunks,
		minLength:     minLength,
		maxTextLength: maxTextLength,
	}
}

// Chunk splits text into overlapping windows of chunkSize characters. When a
// window ends before the end of the text, the chunk end snaps back to the last
// sentence terminator or newline, provided that break point is at least half a
// window in; this keeps chunks semantically whole without shrinking them below
// half-size. Adjacent chunks overlap by chunkOverlap characters.
//
// The cursor strictly advances every iteration, so overlap >= chunkSize cannot
// loop forever. Empty input yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	if c.maxTextLength > 0 && len(text) > c.maxTextLength {
		text = text[:c.maxTextLength]
	}
	textLength := len(text)
	var chunks []string

	start := 0
	for start < textLength && len(chunks) < c.maxChunks {
		end := start + c.chunkSize
		if end > textLength {
			end = textLength
		}

		if end < textLength {
			window := text[start:end]
			lastPeriod := strings.LastIndexByte(window, '.')
			lastNewline := strings.LastIndexByte(window, '\n')
			breakPoint := lastPeriod
			if lastNewline > breakPoint {
				breakPoint = lastNewline
			}
			if breakPoint >= c.chunkSize/2 {
				end = start + breakPoint + 1
			}
		}

		chunk := strings.TrimSpace(text[start:end])
		if len(chunk) > c.minLength {
			chunks = append(chunks, chunk)
		}

		if end >= textLength {
			break
		}
		next := end - c.chunkOverlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// Capped reports whether producing n chunks hit the configured ceiling.
func (c *Chunker) Capped(n int) bool {
	return n >= c.maxChunks
}
