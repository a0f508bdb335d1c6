package realtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/wal"
)

func newTestIndexer(t *testing.T) (*Indexer, string) {
	t.Helper()
	indexDir := t.TempDir()
	an := analyzer.New(analyzer.Config{Language: analyzer.LanguageNone})
	idx, err := Open(indexDir, an, wal.Options{}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return idx, indexDir
}

func TestAddDocumentThenSearchFindsIt(t *testing.T) {
	idx, _ := newTestIndexer(t)
	defer idx.Close()

	docID, err := idx.AddDocument("alpha", "the quick brown fox", "")
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	hits, err := idx.Search(context.Background(), "quick fox", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].DocID != docID || hits[0].BookID != "alpha" {
		t.Fatalf("expected a single hit for doc %d, got %v", docID, hits)
	}
}

func TestFlushSealsRAMIntoDurableSegmentAndTruncatesWAL(t *testing.T) {
	idx, indexDir := newTestIndexer(t)
	defer idx.Close()

	if _, err := idx.AddDocument("alpha", "the quick brown fox", ""); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if _, err := idx.AddDocument("beta", "lazy dog sleeps all day", ""); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	if err := idx.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	records, err := wal.ReadAll(filepath.Join(indexDir, walFileName))
	if err != nil {
		t.Fatalf("ReadAll after flush: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected wal truncated after flush, got %d records", len(records))
	}

	hits, err := idx.Search(context.Background(), "quick fox", 10)
	if err != nil {
		t.Fatalf("Search after flush: %v", err)
	}
	if len(hits) != 1 || hits[0].BookID != "alpha" {
		t.Fatalf("expected search to still find the flushed document, got %v", hits)
	}
}

func TestOpenReplaysWALAfterSimulatedCrash(t *testing.T) {
	idx, indexDir := newTestIndexer(t)
	docID, err := idx.AddDocument("alpha", "the quick brown fox", "")
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	// Close without flushing, simulating a crash after "in-ram+wal" but
	// before "flushed".
	idx.Close()

	an := analyzer.New(analyzer.Config{Language: analyzer.LanguageNone})
	reopened, err := Open(indexDir, an, wal.Options{}, nil)
	if err != nil {
		t.Fatalf("reopening after crash: %v", err)
	}
	defer reopened.Close()

	doc, ok := reopened.ram.GetDocument(docID)
	if !ok || doc.BookID != "alpha" {
		t.Fatalf("expected wal replay to recover doc %d, got %v (ok=%v)", docID, doc, ok)
	}
}

func TestSearchEmptyIndexReturnsNoHits(t *testing.T) {
	idx, _ := newTestIndexer(t)
	defer idx.Close()

	hits, err := idx.Search(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits on empty index, got %v", hits)
	}
}
