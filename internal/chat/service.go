package chat

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/config"
	"github.com/wattmonk/ragchat/internal/history"
	"github.com/wattmonk/ragchat/internal/ingest"
	"github.com/wattmonk/ragchat/internal/intent"
	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/search"
	"github.com/wattmonk/ragchat/internal/store"
)

// apologyResponse is the user-visible text when the pipeline fails outright.
const apologyResponse = "I apologize, but I encountered an error while generating a response. Please try again."

// Service composes the retrieval core behind the seams the HTTP layer needs.
// Every public method is total: it returns a value for any input, including
// malformed files and unreachable external services.
type Service struct {
	classifier  *intent.Classifier
	retriever   *search.Retriever
	processor   *ingest.Processor
	generator   Generator
	collections *store.Collections
	log         history.Store
	cfg         *config.RetrievalConfig
	logger      *zap.Logger
}

// NewService creates the service. log may be nil to disable conversation
// recording.
func NewService(
	classifier *intent.Classifier,
	retriever *search.Retriever,
	processor *ingest.Processor,
	generator Generator,
	collections *store.Collections,
	log history.Store,
	cfg *config.RetrievalConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		classifier:  classifier,
		retriever:   retriever,
		processor:   processor,
		generator:   generator,
		collections: collections,
		log:         log,
		cfg:         cfg,
		logger:      logger,
	}
}

// Classify returns the intent for a query.
func (s *Service) Classify(query string) models.Intent {
	return s.classifier.Classify(query)
}

// Process ingests a file into a corpus and reports whether any chunk was stored.
func (s *Service) Process(ctx context.Context, path string, corpus models.Corpus) bool {
	return s.processor.Process(ctx, path, corpus).Success()
}

// Search retrieves up to k ranked results for a query. Relevance is 1 - distance
// so higher means more relevant in the exposed shape.
func (s *Service) Search(ctx context.Context, query string, filter *models.Corpus, k int) []models.RankedResult {
	defer s.recoverTotal("search")
	if k <= 0 {
		k = s.cfg.TopK
	}
	results := s.retriever.Retrieve(ctx, query, filter, k)
	ranked := make([]models.RankedResult, 0, len(results))
	for _, res := range results {
		idx, _ := strconv.Atoi(res.Metadata[models.MetaChunkIndex])
		ranked = append(ranked, models.RankedResult{
			Content:    res.Content,
			Source:     res.Source(),
			Corpus:     res.Corpus(),
			Relevance:  1 - res.Distance,
			ChunkIndex: idx,
		})
	}
	return ranked
}

// Stats returns per-corpus record counts; a failing collection counts as zero.
func (s *Service) Stats(ctx context.Context) models.Stats {
	var stats models.Stats
	if n, err := s.collections.NEC.Count(ctx); err == nil {
		stats.NECDocuments = n
	} else {
		s.logger.Warn("nec count failed", zap.Error(err))
	}
	if n, err := s.collections.Wattmonk.Count(ctx); err == nil {
		stats.WattmonkDocuments = n
	} else {
		s.logger.Warn("wattmonk count failed", zap.Error(err))
	}
	stats.TotalDocuments = stats.NECDocuments + stats.WattmonkDocuments
	return stats
}

// Chat runs the complete pipeline for one user query. General queries get no
// document context. Any failure degrades to an apologetic response with zero
// sources instead of an error.
func (s *Service) Chat(ctx context.Context, query string, keepHistory bool) (resp *models.ChatResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("chat pipeline panic", zap.Any("panic", r))
			resp = s.apology(query)
		}
	}()

	if keepHistory {
		s.record(ctx, "user", query, "")
	}

	queryIntent := s.classifier.Classify(query)

	var contextResults []models.SearchResult
	if queryIntent.CorpusFilter != nil {
		contextResults = s.retriever.Retrieve(ctx, query, queryIntent.CorpusFilter, s.cfg.ChatTopK)
	}
	contextText := FormatContext(contextResults)

	answer, err := s.generator.Generate(ctx, BuildPrompt(query, contextText, queryIntent))
	if err != nil {
		s.logger.Error("generation failed", zap.Error(err))
		resp = s.apology(query)
		resp.Intent = queryIntent
	} else {
		resp = &models.ChatResponse{
			Query:        query,
			Response:     answer,
			Intent:       queryIntent,
			ContextUsed:  contextResults,
			SourcesCount: len(contextResults),
			HasContext:   contextText != "",
			Timestamp:    time.Now(),
		}
	}

	if keepHistory {
		s.record(ctx, "bot", resp.Response, string(queryIntent.Label))
	}
	return resp
}

// History returns the most recent limit conversation turns.
func (s *Service) History(ctx context.Context, limit int) []*models.ConversationTurn {
	if s.log == nil {
		return nil
	}
	turns, err := s.log.Recent(ctx, limit)
	if err != nil {
		s.logger.Warn("history read failed", zap.Error(err))
		return nil
	}
	return turns
}

// ClearHistory deletes the conversation log.
func (s *Service) ClearHistory(ctx context.Context) {
	if s.log == nil {
		return
	}
	if err := s.log.Clear(ctx); err != nil {
		s.logger.Warn("history clear failed", zap.Error(err))
	}
}

func (s *Service) apology(query string) *models.ChatResponse {
	return &models.ChatResponse{
		Query:     query,
		Response:  apologyResponse,
		Intent:    models.Intent{Label: models.IntentGeneral, Confidence: 0},
		Timestamp: time.Now(),
	}
}

func (s *Service) record(ctx context.Context, role, text, intentLabel string) {
	if s.log == nil {
		return
	}
	err := s.log.Append(ctx, &models.ConversationTurn{
		Role:   role,
		Text:   text,
		Intent: intentLabel,
	})
	if err != nil {
		s.logger.Warn("history append failed", zap.Error(err))
	}
}

// recoverTotal converts a panic in a total method into a logged event. The
// method's zero return value stands in for the failed computation.
func (s *Service) recoverTotal(op string) {
	if r := recover(); r != nil {
		s.logger.Error("pipeline panic", zap.String("op", op), zap.Any("panic", r))
	}
}
