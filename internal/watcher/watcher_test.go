package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wattmonk/ragchat/internal/models"
)

type ingestEvent struct {
	path   string
	corpus models.Corpus
}

func startTestWatcher(t *testing.T, roots []Root) (chan ingestEvent, context.CancelFunc) {
	t.Helper()
	events := make(chan ingestEvent, 16)
	w := NewWatcher(roots, []string{".txt", ".pdf"}, func(path string, corpus models.Corpus) {
		events <- ingestEvent{path: path, corpus: corpus}
	})
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		cancel()
		t.Fatal(err)
	}
	t.Cleanup(cancel)
	return events, cancel
}

func waitForEvent(t *testing.T, events chan ingestEvent) ingestEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ingest callback")
		return ingestEvent{}
	}
}

func TestWatcher_NewFileTriggersIngest(t *testing.T) {
	dir := t.TempDir()
	events, _ := startTestWatcher(t, []Root{{Dir: dir, Corpus: models.CorpusNEC}})

	path := filepath.Join(dir, "code.txt")
	if err := os.WriteFile(path, []byte("article 250"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitForEvent(t, events)
	if ev.path != path {
		t.Errorf("path = %q, want %q", ev.path, path)
	}
	if ev.corpus != models.CorpusNEC {
		t.Errorf("corpus = %q, want nec", ev.corpus)
	}
}

func TestWatcher_RoutesByRoot(t *testing.T) {
	necDir := t.TempDir()
	wmDir := t.TempDir()
	events, _ := startTestWatcher(t, []Root{
		{Dir: necDir, Corpus: models.CorpusNEC},
		{Dir: wmDir, Corpus: models.CorpusWattmonk},
	})

	if err := os.WriteFile(filepath.Join(wmDir, "services.txt"), []byte("solar"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitForEvent(t, events)
	if ev.corpus != models.CorpusWattmonk {
		t.Errorf("corpus = %q, want wattmonk", ev.corpus)
	}
}

func TestWatcher_IgnoresDisallowedExtensions(t *testing.T) {
	dir := t.TempDir()
	events, _ := startTestWatcher(t, []Root{{Dir: dir, Corpus: models.CorpusNEC}})

	if err := os.WriteFile(filepath.Join(dir, "notes.tmp"), []byte("scratch"), 0o644); err != nil {
		t.Fatal(err)
	}
	// An allowed file after the ignored one; only it should come through.
	allowed := filepath.Join(dir, "real.txt")
	if err := os.WriteFile(allowed, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitForEvent(t, events)
	if ev.path != allowed {
		t.Errorf("expected only the allowed file, got %q", ev.path)
	}
	select {
	case ev := <-events:
		t.Errorf("unexpected extra event for %q", ev.path)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	events, _ := startTestWatcher(t, []Root{{Dir: dir, Corpus: models.CorpusNEC}})

	path := filepath.Join(dir, "busy.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("revision"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	waitForEvent(t, events)
	select {
	case <-events:
		t.Error("rapid writes should collapse into one ingest")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatcher_StartFailsOnMissingRoot(t *testing.T) {
	w := NewWatcher([]Root{{Dir: "/nonexistent/docs", Corpus: models.CorpusNEC}},
		[]string{".txt"}, func(string, models.Corpus) {})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err == nil {
		t.Error("expected error for missing root directory")
	}
}
