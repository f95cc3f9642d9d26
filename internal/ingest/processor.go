package ingest

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/config"
	"github.com/wattmonk/ragchat/internal/embedding"
	"github.com/wattmonk/ragchat/internal/extract"
	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/store"
)

// Processor runs the ingestion pipeline: extract, chunk, embed, store.
type Processor struct {
	extractor   *extract.Extractor
	embedder    embedding.Embedder
	collections *store.Collections
	chunker     *Chunker
	cfg         *config.RetrievalConfig
	logger      *zap.Logger
}

// NewProcessor creates a processor with the given dependencies. The chunk-count
// ceiling used here is the tighter ingest limit, not the chunker's absolute one.
func NewProcessor(
	extractor *extract.Extractor,
	embedder embedding.Embedder,
	collections *store.Collections,
	cfg *config.RetrievalConfig,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		extractor:   extractor,
		embedder:    embedder,
		collections: collections,
		chunker: NewChunker(
			cfg.ChunkSize, cfg.ChunkOverlap, cfg.IngestMaxChunks,
			cfg.MinChunkLength, cfg.MaxTextLength,
		),
		cfg:    cfg,
		logger: logger,
	}
}

// Process ingests one document into the given corpus. It is total: every
// failure mode (unreadable file, empty extraction, per-chunk embedding or store
// errors, even a panic inside a parser) is logged and reflected in the report
// rather than escaping. Chunks that fail to embed are skipped, never stored
// without a vector.
//
// Chunk IDs are content-derived, so re-processing an identical file upserts the
// same records instead of duplicating them.
func (p *Processor) Process(ctx context.Context, path string, corpus models.Corpus) (report *models.IngestReport) {
	report = &models.IngestReport{Path: path, Corpus: corpus}
	defer func() {
		// Parser and embedder internals can panic on malformed inputs; the
		// watcher calls Process from a timer goroutine, so contain it here.
		if r := recover(); r != nil {
			p.logger.Error("ingestion panic, document partially indexed",
				zap.String("path", path), zap.Any("panic", r))
		}
	}()

	text, err := p.extractor.Extract(path)
	if err != nil {
		p.logger.Warn("extraction failed, nothing to index",
			zap.String("path", path), zap.Error(err))
		return report
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Warn("no text extracted", zap.String("path", path))
		return report
	}

	chunks := p.chunker.Chunk(text)
	report.TotalChunks = len(chunks)
	if p.chunker.Capped(len(chunks)) {
		p.logger.Warn("chunk ceiling reached, document partially indexed",
			zap.String("path", path), zap.Int("max_chunks", p.cfg.IngestMaxChunks))
	}

	collection := p.collections.ForCorpus(corpus)
	source := filepath.Base(path)

	batchSize := p.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	for batchStart := 0; batchStart < len(chunks); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		for i := batchStart; i < batchEnd; i++ {
			if p.storeChunk(ctx, collection, path, source, corpus, i, chunks[i]) {
				report.StoredChunks++
			}
		}
		if batchEnd < len(chunks) {
			// Self-imposed throttle against the embedding service.
			p.pause(ctx)
		}
	}

	p.logger.Info("document processed",
		zap.String("path", path),
		zap.String("corpus", string(corpus)),
		zap.Int("total_chunks", report.TotalChunks),
		zap.Int("stored_chunks", report.StoredChunks),
	)
	return report
}

// storeChunk embeds and upserts one chunk. Returns false when the chunk was
// skipped because embedding or storage failed.
func (p *Processor) storeChunk(
	ctx context.Context,
	collection store.Collection,
	path, source string,
	corpus models.Corpus,
	index int,
	content string,
) bool {
	vector, err := p.embedder.Embed(ctx, content, embedding.TaskDocument)
	if err != nil || len(vector) == 0 {
		p.logger.Warn("embedding failed, skipping chunk",
			zap.String("path", path), zap.Int("chunk_index", index), zap.Error(err))
		return false
	}
	rec := store.Record{
		ID:      ChunkID(path, index, content),
		Vector:  vector,
		Content: content,
		Metadata: map[string]string{
			models.MetaSource:     source,
			models.MetaChunkIndex: strconv.Itoa(index),
			models.MetaCorpus:     string(corpus),
			models.MetaFilePath:   path,
		},
	}
	if err := collection.Add(ctx, rec); err != nil {
		p.logger.Warn("store failed, skipping chunk",
			zap.String("path", path), zap.Int("chunk_index", index), zap.Error(err))
		return false
	}
	return true
}

func (p *Processor) pause(ctx context.Context) {
	d := p.cfg.BatchPauseDuration()
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
