// Package main is the ragchat CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/chat"
	"github.com/wattmonk/ragchat/internal/config"
	"github.com/wattmonk/ragchat/internal/embedding"
	"github.com/wattmonk/ragchat/internal/extract"
	"github.com/wattmonk/ragchat/internal/history"
	"github.com/wattmonk/ragchat/internal/ingest"
	"github.com/wattmonk/ragchat/internal/intent"
	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/search"
	"github.com/wattmonk/ragchat/internal/server"
	"github.com/wattmonk/ragchat/internal/store"
	"github.com/wattmonk/ragchat/internal/watcher"
	"github.com/wattmonk/ragchat/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	// Best effort: a missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "classify":
		runClassify()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("ragchat version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: ragchat <command> [flags]

Commands:
  server    start the HTTP API server
  ingest    ingest documents into a corpus
  search    search the knowledge base
  classify  classify a query's intent
  stats     show per-corpus record counts
  version   print version`)
}

// components holds the wired application graph.
type components struct {
	cfg         *config.Config
	logger      *zap.Logger
	qdrant      *store.QdrantStore
	collections *store.Collections
	log         *history.SQLiteStore
	service     *chat.Service
	processor   *ingest.Processor
}

// Close releases external handles.
func (c *components) Close() {
	if c.log != nil {
		_ = c.log.Close()
	}
	if c.qdrant != nil {
		_ = c.qdrant.Close()
	}
	_ = c.logger.Sync()
}

func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// initializeComponents builds the full application graph. withHistory controls
// whether the conversation log database is opened (the one-shot CLI commands
// do not need it).
func initializeComponents(cfg *config.Config, logger *zap.Logger, withHistory bool) (*components, error) {
	c := &components{cfg: cfg, logger: logger}

	embedClient, err := embedding.NewGeminiClient(embedding.GeminiConfig{
		BaseURL:       cfg.Embedding.BaseURL,
		APIKeyEnv:     cfg.Embedding.APIKeyEnv,
		PrimaryModel:  cfg.Embedding.PrimaryModel,
		FallbackModel: cfg.Embedding.FallbackModel,
		Dimensions:    cfg.Embedding.Dimensions,
		Timeout:       cfg.Embedding.Timeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}
	embedder := embedding.NewCachedEmbedder(embedClient, cfg.Embedding.CacheSize)

	generator, err := chat.NewGeminiGenerator(chat.GeminiConfig{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		Model:     cfg.Generation.Model,
		Timeout:   cfg.Generation.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("generation client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	qdrant, err := store.NewQdrantStore(cfg.Storage.QdrantAddr, cfg.Embedding.Dimensions)
	if err == nil {
		c.collections, err = qdrant.Collections(ctx)
		if err == nil {
			c.qdrant = qdrant
		} else {
			_ = qdrant.Close()
		}
	}
	if c.collections == nil {
		// Degraded mode: searches and ingests work but nothing persists.
		logger.Warn("qdrant unreachable, using in-memory collections",
			zap.String("addr", cfg.Storage.QdrantAddr), zap.Error(err))
		c.collections, err = store.NewMemoryCollections(cfg.Embedding.Dimensions)
		if err != nil {
			return nil, err
		}
	}

	var log history.Store
	if withHistory {
		sqlite, err := history.NewSQLiteStore(cfg.Storage.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		c.log = sqlite
		log = sqlite
	}

	extractor := extract.NewExtractor(extract.WithLogger(logger))
	c.processor = ingest.NewProcessor(extractor, embedder, c.collections, &cfg.Retrieval, logger)

	semantic := search.NewSemantic(embedder, c.collections, logger)
	keyword := search.NewKeyword(c.collections, logger)
	retriever := search.NewRetriever(semantic, keyword, &cfg.Retrieval, logger)
	classifier := intent.NewClassifier(&cfg.Intent)

	c.service = chat.NewService(classifier, retriever, c.processor, generator,
		c.collections, log, &cfg.Retrieval, logger)
	return c, nil
}

func setup(fs *flag.FlagSet, args []string, withHistory bool) *components {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	c, err := initializeComponents(cfg, logger, withHistory)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return c
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	c := setup(fs, os.Args[2:], true)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startWatcher(ctx, c)

	srv := server.NewServer(c.service, &c.cfg.Server, c.logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		c.logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			c.logger.Error("server stopped", zap.Error(err))
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// startWatcher wires the directory watcher when corpus directories are
// configured; without them the watcher is skipped.
func startWatcher(ctx context.Context, c *components) {
	var roots []watcher.Root
	if c.cfg.Documents.NECDir != "" {
		roots = append(roots, watcher.Root{Dir: c.cfg.Documents.NECDir, Corpus: models.CorpusNEC})
	}
	if c.cfg.Documents.WattmonkDir != "" {
		roots = append(roots, watcher.Root{Dir: c.cfg.Documents.WattmonkDir, Corpus: models.CorpusWattmonk})
	}
	if len(roots) == 0 {
		return
	}
	w := watcher.NewWatcher(roots, c.cfg.Documents.Extensions,
		func(path string, corpus models.Corpus) {
			c.processor.Process(ctx, path, corpus)
		},
		watcher.WithLogger(c.logger),
	)
	if err := w.Start(ctx); err != nil {
		c.logger.Warn("failed to start document watcher", zap.Error(err))
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	corpusFlag := fs.String("corpus", "", "corpus label (nec or wattmonk)")
	c := setup(fs, os.Args[2:], false)
	defer c.Close()

	corpus, ok := models.ParseCorpus(*corpusFlag)
	if !ok {
		fmt.Println("ingest: -corpus must be 'nec' or 'wattmonk'")
		os.Exit(1)
	}
	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Println("ingest: no files given")
		os.Exit(1)
	}
	ctx := context.Background()
	failed := 0
	for _, path := range paths {
		report := c.processor.Process(ctx, path, corpus)
		fmt.Printf("%s: stored %d/%d chunks\n", path, report.StoredChunks, report.TotalChunks)
		if !report.Success() {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("%d of %d files failed\n", failed, len(paths))
		os.Exit(1)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	query := fs.String("query", "", "search query")
	docType := fs.String("type", "", "optional corpus filter (nec or wattmonk)")
	k := fs.Int("k", 0, "number of results")
	asJSON := fs.Bool("json", false, "output JSON")
	c := setup(fs, os.Args[2:], false)
	defer c.Close()

	if *query == "" {
		fmt.Println("search: -query is required")
		os.Exit(1)
	}
	var filter *models.Corpus
	if *docType != "" {
		corpus, ok := models.ParseCorpus(*docType)
		if !ok {
			fmt.Println("search: -type must be 'nec' or 'wattmonk'")
			os.Exit(1)
		}
		filter = &corpus
	}
	results := c.service.Search(context.Background(), *query, filter, *k)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(results)
		return
	}
	fmt.Printf("Found %d results\n\n", len(results))
	for i, res := range results {
		fmt.Printf("%d. [%s] %s (relevance %.4f)\n", i+1, res.Corpus, res.Source, res.Relevance)
		fmt.Printf("   %s\n\n", utils.Truncate(res.Content, 200))
	}
}

// classifyQuery is the classify command's core: rule-based classification
// needs only the config, no external clients.
func classifyQuery(configPath, query string) (models.Intent, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return models.Intent{}, err
	}
	return intent.NewClassifier(&cfg.Intent).Classify(query), nil
}

func runClassify() {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	query := fs.String("query", "", "query to classify")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	result, err := classifyQuery(*configPath, *query)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	c := setup(fs, os.Args[2:], false)
	defer c.Close()

	stats := c.service.Stats(context.Background())
	fmt.Printf("nec_documents:      %d\n", stats.NECDocuments)
	fmt.Printf("wattmonk_documents: %d\n", stats.WattmonkDocuments)
	fmt.Printf("total_documents:    %d\n", stats.TotalDocuments)
}
