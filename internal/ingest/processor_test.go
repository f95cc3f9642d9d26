package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/config"
	"github.com/wattmonk/ragchat/internal/embedding"
	"github.com/wattmonk/ragchat/internal/extract"
	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/store"
)

func testRetrievalConfig() *config.RetrievalConfig {
	return &config.RetrievalConfig{
		ChunkSize:       200,
		ChunkOverlap:    20,
		MaxChunks:       500,
		IngestMaxChunks: 200,
		MinChunkLength:  20,
		MaxTextLength:   500000,
		TopK:            5,
		BatchSize:       10,
	}
}

func newTestProcessor(t *testing.T, embedder embedding.Embedder) (*Processor, *store.Collections) {
	t.Helper()
	collections, err := store.NewMemoryCollections(embedder.Dimensions())
	if err != nil {
		t.Fatal(err)
	}
	extractor := extract.NewExtractor()
	p := NewProcessor(extractor, embedder, collections, testRetrievalConfig(), zap.NewNop())
	return p, collections
}

func writeTempText(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessor_Process(t *testing.T) {
	p, collections := newTestProcessor(t, embedding.NewMockEmbedder(32))
	path := writeTempText(t, strings.Repeat("grounding conductors shall be sized per table. ", 20))

	report := p.Process(context.Background(), path, models.CorpusNEC)
	if !report.Success() {
		t.Fatalf("expected successful ingest, got %+v", report)
	}
	if report.StoredChunks != report.TotalChunks {
		t.Errorf("stored %d of %d chunks", report.StoredChunks, report.TotalChunks)
	}
	count, err := collections.NEC.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != int64(report.StoredChunks) {
		t.Errorf("collection count = %d, want %d", count, report.StoredChunks)
	}
	if n, _ := collections.Wattmonk.Count(context.Background()); n != 0 {
		t.Errorf("wattmonk collection should be untouched, has %d records", n)
	}
}

func TestProcessor_ReprocessIsIdempotent(t *testing.T) {
	p, collections := newTestProcessor(t, embedding.NewMockEmbedder(32))
	path := writeTempText(t, strings.Repeat("service panels require accessible disconnects. ", 20))

	ctx := context.Background()
	first := p.Process(ctx, path, models.CorpusNEC)
	second := p.Process(ctx, path, models.CorpusNEC)
	if first.StoredChunks != second.StoredChunks {
		t.Errorf("reprocess stored %d chunks, first run stored %d", second.StoredChunks, first.StoredChunks)
	}
	count, _ := collections.NEC.Count(ctx)
	if count != int64(first.StoredChunks) {
		t.Errorf("count after reprocess = %d, want %d (no duplicates)", count, first.StoredChunks)
	}
}

func TestProcessor_ChunkMetadata(t *testing.T) {
	p, collections := newTestProcessor(t, embedding.NewMockEmbedder(32))
	path := writeTempText(t, strings.Repeat("wattmonk platform automates solar design review. ", 10))

	p.Process(context.Background(), path, models.CorpusWattmonk)
	records, err := collections.Wattmonk.GetAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) == 0 {
		t.Fatal("expected stored records")
	}
	rec := records[0]
	if rec.Metadata[models.MetaSource] != "doc.txt" {
		t.Errorf("source = %q, want doc.txt", rec.Metadata[models.MetaSource])
	}
	if rec.Metadata[models.MetaCorpus] != string(models.CorpusWattmonk) {
		t.Errorf("corpus = %q", rec.Metadata[models.MetaCorpus])
	}
	if rec.Metadata[models.MetaChunkIndex] != "0" {
		t.Errorf("chunk index = %q, want 0", rec.Metadata[models.MetaChunkIndex])
	}
	if rec.Metadata[models.MetaFilePath] != path {
		t.Errorf("file path = %q, want %q", rec.Metadata[models.MetaFilePath], path)
	}
}

func TestProcessor_MissingFile(t *testing.T) {
	p, _ := newTestProcessor(t, embedding.NewMockEmbedder(32))
	report := p.Process(context.Background(), "/nonexistent/file.txt", models.CorpusNEC)
	if report.Success() {
		t.Error("missing file should not report success")
	}
	if report.TotalChunks != 0 || report.StoredChunks != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string, task embedding.Task) ([]float32, error) {
	return nil, errors.New("service unavailable")
}

func (failingEmbedder) Dimensions() int { return 32 }

type panickingEmbedder struct{}

func (panickingEmbedder) Embed(ctx context.Context, text string, task embedding.Task) ([]float32, error) {
	panic("embedder blew up")
}

func (panickingEmbedder) Dimensions() int { return 32 }

func TestProcessor_PanicContained(t *testing.T) {
	p, collections := newTestProcessor(t, panickingEmbedder{})
	path := writeTempText(t, strings.Repeat("feeder taps and overcurrent protection rules. ", 20))

	report := p.Process(context.Background(), path, models.CorpusNEC)
	if report == nil {
		t.Fatal("Process must return a report even when a dependency panics")
	}
	if report.Success() {
		t.Error("panicking embedder should not report success")
	}
	if report.TotalChunks == 0 {
		t.Error("chunking completed before the panic, report should reflect it")
	}
	if count, _ := collections.NEC.Count(context.Background()); count != 0 {
		t.Errorf("no records should be stored, got %d", count)
	}
}

func TestProcessor_EmbeddingFailureSkipsChunks(t *testing.T) {
	p, collections := newTestProcessor(t, failingEmbedder{})
	path := writeTempText(t, strings.Repeat("conduit fill calculations and derating factors. ", 20))

	report := p.Process(context.Background(), path, models.CorpusNEC)
	if report.Success() {
		t.Error("ingest with failing embedder should not report success")
	}
	if report.TotalChunks == 0 {
		t.Error("chunking should still have produced chunks")
	}
	if count, _ := collections.NEC.Count(context.Background()); count != 0 {
		t.Errorf("no records should be stored, got %d", count)
	}
}
