// Package extract provides text extraction from source document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// defaultMaxPDFPages bounds PDF processing to keep memory and time predictable
// on very large code books.
const defaultMaxPDFPages = 100

// Extractor extracts plain text from document files.
type Extractor struct {
	logger      *zap.Logger // optional; when set, logs per-page extraction failures
	maxPDFPages int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for extraction diagnostics.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// WithMaxPDFPages overrides the PDF page ceiling. Values below one are ignored.
func WithMaxPDFPages(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxPDFPages = n
		}
	}
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{maxPDFPages: defaultMaxPDFPages}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text content. Dispatch is by
// extension: PDF, DOCX, and XLSX are parsed from their binary formats; anything
// else is treated as UTF-8 plain text.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return e.extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		// .txt, .md, and unknown extensions: treat as plain text
		return extractPlain(content)
	}
}
