package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// extractPDF extracts text from PDF bytes, processing at most e.maxPDFPages
// pages. A page that fails to extract is skipped; extraction continues with the
// remaining pages. Pages are joined with newlines.
func (e *Extractor) extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages := numPages
	if pages > e.maxPDFPages {
		pages = e.maxPDFPages
	}
	var buf strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("pdf page extraction failed, skipping",
					zap.Int("page", i), zap.Error(err))
			}
			continue
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
	}
	if e.logger != nil && numPages > pages {
		e.logger.Warn("pdf truncated to page cap",
			zap.Int("total_pages", numPages), zap.Int("processed_pages", pages))
	}
	return buf.String(), nil
}
