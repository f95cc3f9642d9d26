package chat

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
	"github.com/wattmonk/ragchat/internal/history"
	"github.com/wattmonk/ragchat/internal/ingest"
	"github.com/wattmonk/ragchat/internal/intent"
	"github.com/wattmonk/ragchat/internal/models"
	"github.com/wattmonk/ragchat/internal/search"
	"github.com/wattmonk/ragchat/internal/store"
)

type stubGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func newTestService(t *testing.T, gen Generator, log history.Store) (*Service, *store.Collections) {
	t.Helper()
	cfg := config.Default()
	cfg.Retrieval.MinChunkLength = 20

	embedder := embedding.NewMockEmbedder(32)
	collections, err := store.NewMemoryCollections(32)
	if err != nil {
		t.Fatal(err)
	}
	processor := ingest.NewProcessor(extract.NewExtractor(), embedder, collections, &cfg.Retrieval, zap.NewNop())
	semantic := search.NewSemantic(embedder, collections, zap.NewNop())
	keyword := search.NewKeyword(collections, zap.NewNop())
	retriever := search.NewRetriever(semantic, keyword, &cfg.Retrieval, zap.NewNop())
	classifier := intent.NewClassifier(&cfg.Intent)

	svc := NewService(classifier, retriever, processor, gen, collections, log, &cfg.Retrieval, zap.NewNop())
	return svc, collections
}

func ingestText(t *testing.T, svc *Service, corpus models.Corpus, text string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	if !svc.Process(context.Background(), path, corpus) {
		t.Fatal("ingest failed")
	}
}

func TestService_ChatGeneralSkipsRetrieval(t *testing.T) {
	gen := &stubGenerator{answer: "The capital of France is Paris."}
	svc, _ := newTestService(t, gen, nil)

	resp := svc.Chat(context.Background(), "what is the capital of France?", false)
	if resp.Intent.Label != models.IntentGeneral {
		t.Errorf("intent = %s, want general", resp.Intent.Label)
	}
	if resp.SourcesCount != 0 || resp.HasContext {
		t.Error("general chat should not use document context")
	}
	if resp.Response != gen.answer {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestService_ChatCorpusQueryRetrievesContext(t *testing.T) {
	gen := &stubGenerator{answer: "Grounding is covered in article 250."}
	svc, _ := newTestService(t, gen, nil)
	ingestText(t, svc, models.CorpusNEC,
		"Article 250 covers grounding and bonding of electrical systems and circuit conductors.")

	resp := svc.Chat(context.Background(), "what are the grounding rules for a circuit?", false)
	if resp.Intent.Label != models.IntentNEC {
		t.Fatalf("intent = %s, want nec", resp.Intent.Label)
	}
	if !resp.HasContext || resp.SourcesCount == 0 {
		t.Error("corpus query over an indexed corpus should have context")
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Article 250") {
		t.Error("retrieved context should reach the generator prompt")
	}
}

func TestService_ChatGenerationFailureApologizes(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model overloaded")}
	svc, _ := newTestService(t, gen, nil)

	resp := svc.Chat(context.Background(), "what are the grounding rules for a circuit?", false)
	if resp.Response != apologyResponse {
		t.Errorf("response = %q, want apology", resp.Response)
	}
	// The classified intent survives even when generation fails.
	if resp.Intent.Label != models.IntentNEC {
		t.Errorf("intent = %s, want nec", resp.Intent.Label)
	}
	if resp.SourcesCount != 0 {
		t.Error("failed chat should report zero sources")
	}
}

func TestService_ChatRecordsHistory(t *testing.T) {
	log, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	gen := &stubGenerator{answer: "hello there"}
	svc, _ := newTestService(t, gen, log)
	ctx := context.Background()

	svc.Chat(ctx, "hi", true)
	turns := svc.History(ctx, 10)
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want user + bot", len(turns))
	}
	if turns[0].Role != "user" || turns[1].Role != "bot" {
		t.Errorf("roles = %s, %s", turns[0].Role, turns[1].Role)
	}

	svc.ClearHistory(ctx)
	if turns := svc.History(ctx, 10); len(turns) != 0 {
		t.Errorf("history should be empty after clear, got %d turns", len(turns))
	}
}

func TestService_ChatWithoutHistoryFlagDoesNotRecord(t *testing.T) {
	log, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	svc, _ := newTestService(t, &stubGenerator{answer: "ok"}, log)
	svc.Chat(context.Background(), "hi", false)
	if turns := svc.History(context.Background(), 10); len(turns) != 0 {
		t.Errorf("history should stay empty, got %d turns", len(turns))
	}
}

func TestService_SearchRanksByRelevance(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{answer: "ok"}, nil)
	ingestText(t, svc, models.CorpusNEC,
		"Conductor ampacity tables determine the wire gauge for a given load.")

	results := svc.Search(context.Background(), "conductor ampacity tables determine wire gauge", nil, 5)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Relevance <= 0 {
		t.Errorf("top relevance = %f, want > 0", results[0].Relevance)
	}
	if results[0].Source != "doc.txt" {
		t.Errorf("source = %q", results[0].Source)
	}
}

func TestService_StatsCountsPerCorpus(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{answer: "ok"}, nil)
	ingestText(t, svc, models.CorpusNEC,
		"Overcurrent protection devices shall be rated for the circuit they protect.")
	ingestText(t, svc, models.CorpusWattmonk,
		"Wattmonk provides solar permit design and engineering review services.")

	stats := svc.Stats(context.Background())
	if stats.NECDocuments == 0 || stats.WattmonkDocuments == 0 {
		t.Errorf("both corpora should be populated: %+v", stats)
	}
	if stats.TotalDocuments != stats.NECDocuments+stats.WattmonkDocuments {
		t.Error("total should be the sum of both corpora")
	}
}

type explodingEmbedder struct{}

func (explodingEmbedder) Embed(ctx context.Context, text string, task embedding.Task) ([]float32, error) {
	panic("embedder blew up")
}

func (explodingEmbedder) Dimensions() int { return 32 }

func TestService_ProcessSurvivesEmbedderPanic(t *testing.T) {
	cfg := config.Default()
	cfg.Retrieval.MinChunkLength = 20

	collections, err := store.NewMemoryCollections(32)
	if err != nil {
		t.Fatal(err)
	}
	processor := ingest.NewProcessor(extract.NewExtractor(), explodingEmbedder{}, collections, &cfg.Retrieval, zap.NewNop())
	classifier := intent.NewClassifier(&cfg.Intent)
	svc := NewService(classifier, nil, processor, &stubGenerator{answer: "ok"}, collections, nil, &cfg.Retrieval, zap.NewNop())

	path := filepath.Join(t.TempDir(), "doc.txt")
	content := strings.Repeat("bonding jumpers connect metal parts to the grounding system. ", 10)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if svc.Process(context.Background(), path, models.CorpusNEC) {
		t.Error("ingest over a panicking embedder should not report success")
	}
	if n, _ := collections.NEC.Count(context.Background()); n != 0 {
		t.Errorf("no records should be stored, got %d", n)
	}
}

func TestService_ProcessMissingFile(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{answer: "ok"}, nil)
	if svc.Process(context.Background(), "/nonexistent/doc.pdf", models.CorpusNEC) {
		t.Error("processing a missing file should not succeed")
	}
}
