// Package e2e exercises the full ingest-and-retrieve pipeline over a synthetic
// two-corpus document set.
package e2e

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wattmonk/ragchat/internal/models"
)

// Document is one synthetic source file for the e2e corpus. Each carries a
// unique signature phrase so queries can assert the right document surfaces.
type Document struct {
	Name      string
	Corpus    models.Corpus
	Signature string
	Content   string
}

// QueryCase is a retrieval assertion: the query must surface a result whose
// content contains the signature.
type QueryCase struct {
	Query     string
	Corpus    models.Corpus
	Signature string
}

var necTopics = []struct {
	name      string
	signature string
	body      string
}{
	{
		"grounding.txt",
		"grounding electrode conductor sizing follows the service conductor table",
		"Grounding and bonding protect persons and property from electrical faults. The grounding electrode conductor sizing follows the service conductor table based on the largest ungrounded conductor. Bonding jumpers maintain continuity across metal raceways.",
	},
	{
		"ampacity.txt",
		"conductor ampacity derates above thirty degrees ambient",
		"Conductor selection starts with the calculated load. Conductor ampacity derates above thirty degrees ambient temperature and with more than three current-carrying conductors in a raceway. Terminal temperature ratings also limit the usable ampacity.",
	},
	{
		"gfci.txt",
		"ground fault protection is required in bathrooms kitchens and outdoors",
		"Receptacle outlets in dwelling units have location-dependent protection rules. Ground fault protection is required in bathrooms kitchens and outdoors where moisture raises shock risk. Arc fault protection covers most other habitable rooms.",
	},
}

var wattmonkTopics = []struct {
	name      string
	signature string
	body      string
}{
	{
		"services.txt",
		"permit package turnaround within four business hours",
		"Wattmonk provides solar design and engineering services for installers. The team commits to permit package turnaround within four business hours for residential projects. Site survey reviews and as-built drawings round out the catalog.",
	},
	{
		"zippy.txt",
		"zippy automates plan set generation from survey photos",
		"Zippy is the in-house automation platform. Zippy automates plan set generation from survey photos, producing layouts, single line diagrams, and placards without manual drafting. Designers review the output before it ships.",
	},
}

// BuildDocuments returns the synthetic corpus, padded with filler paragraphs so
// every document spans multiple chunks.
func BuildDocuments() []Document {
	var docs []Document
	for i, t := range necTopics {
		docs = append(docs, Document{
			Name:      t.name,
			Corpus:    models.CorpusNEC,
			Signature: t.signature,
			Content:   pad(t.body, fmt.Sprintf("code article commentary block %d", i)),
		})
	}
	for i, t := range wattmonkTopics {
		docs = append(docs, Document{
			Name:      t.name,
			Corpus:    models.CorpusWattmonk,
			Signature: t.signature,
			Content:   pad(t.body, fmt.Sprintf("company handbook section %d", i)),
		})
	}
	return docs
}

// pad surrounds the body with filler so the signature lands mid-document rather
// than in the first chunk.
func pad(body, filler string) string {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "%s paragraph %d with routine boilerplate text that fills space.\n", filler, i)
	}
	b.WriteString(body)
	b.WriteString("\n")
	for i := 8; i < 16; i++ {
		fmt.Fprintf(&b, "%s paragraph %d with routine boilerplate text that fills space.\n", filler, i)
	}
	return b.String()
}

// BuildPDFDocument returns a synthetic three-page PDF with its signature
// phrase on the middle page, so retrieval exercises the binary extraction path.
func BuildPDFDocument() Document {
	sig := "design checklist requires structural load calculations before stamping"
	pages := []string{
		"The engineering handbook covers plan set review procedures for installers.",
		"The " + sig + " on every residential project.",
		"Completed packages route to the quality team for final verification.",
	}
	return Document{
		Name:      "handbook.pdf",
		Corpus:    models.CorpusWattmonk,
		Signature: sig,
		Content:   string(buildPDF(pages)),
	}
}

// buildPDF assembles a minimal uncompressed PDF, one page per entry. Object
// offsets are computed as the body is written so the xref table is exact.
func buildPDF(pageTexts []string) []byte {
	n := len(pageTexts)
	fontNum := 3 + 2*n
	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
	}
	for i, text := range pageTexts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
				fontNum, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefStart)
	return buf.Bytes()
}

// BuildQueryCases returns one verbatim-phrase query per document.
func BuildQueryCases(docs []Document) []QueryCase {
	cases := make([]QueryCase, 0, len(docs))
	for _, d := range docs {
		cases = append(cases, QueryCase{
			Query:     d.Signature,
			Corpus:    d.Corpus,
			Signature: d.Signature,
		})
	}
	return cases
}
