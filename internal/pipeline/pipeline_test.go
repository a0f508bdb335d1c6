package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfdex/shelfdex/internal/segment"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing source %s: %v", name, err)
	}
}

func TestIndexCorpusWritesSegmentsAndCatalog(t *testing.T) {
	sourceDir := t.TempDir()
	indexDir := t.TempDir()

	writeSource(t, sourceDir, "alpha.txt", "the quick brown fox jumps over the lazy dog")
	writeSource(t, sourceDir, "beta.txt", "a completely different book about cats and dogs")

	opts := DefaultOptions()
	opts.ChunkSize = 5
	opts.ChunkOverlap = 1
	opts.BatchSize = 10

	result, err := IndexCorpus(context.Background(), sourceDir, indexDir, opts)
	if err != nil {
		t.Fatalf("IndexCorpus: %v", err)
	}
	if result.NumBooks != 2 {
		t.Fatalf("NumBooks = %d, want 2", result.NumBooks)
	}
	if result.NumChunks == 0 {
		t.Fatalf("expected at least one chunk, got 0")
	}

	catalog, err := segment.LoadCatalog(indexDir)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog.Segments) != 1 {
		t.Fatalf("expected exactly one segment for a single batch, got %v", catalog.Segments)
	}
	if catalog.TotalDocs == 0 {
		t.Fatalf("expected nonzero total_docs in catalog")
	}

	reader, err := segment.Open(filepath.Join(indexDir, catalog.Segments[0]))
	if err != nil {
		t.Fatalf("opening written segment: %v", err)
	}
	defer reader.Close()
	if reader.NumDocs() != catalog.TotalDocs {
		t.Fatalf("segment NumDocs %d != catalog total_docs %d", reader.NumDocs(), catalog.TotalDocs)
	}
}

func TestIndexCorpusBatchSizeProducesMultipleSegments(t *testing.T) {
	sourceDir := t.TempDir()
	indexDir := t.TempDir()

	for i := 0; i < 4; i++ {
		writeSource(t, sourceDir, string(rune('a'+i))+".txt", "some sample text content for book number")
	}

	opts := DefaultOptions()
	opts.ChunkSize = 100
	opts.ChunkOverlap = 0
	opts.BatchSize = 1

	_, err := IndexCorpus(context.Background(), sourceDir, indexDir, opts)
	if err != nil {
		t.Fatalf("IndexCorpus: %v", err)
	}

	catalog, err := segment.LoadCatalog(indexDir)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog.Segments) != 4 {
		t.Fatalf("expected 4 segments (batch_size=1, 4 books), got %d: %v", len(catalog.Segments), catalog.Segments)
	}
	for i, name := range catalog.Segments {
		want := segment.NextSegmentName(catalog.Segments[:i])
		if name != want {
			t.Fatalf("segment %d named %q, want %q", i, name, want)
		}
	}
}

func TestIndexCorpusReindexRemovesExistingSegments(t *testing.T) {
	sourceDir := t.TempDir()
	indexDir := t.TempDir()
	writeSource(t, sourceDir, "alpha.txt", "first run content here")

	opts := DefaultOptions()
	if _, err := IndexCorpus(context.Background(), sourceDir, indexDir, opts); err != nil {
		t.Fatalf("first IndexCorpus: %v", err)
	}
	first, err := segment.LoadCatalog(indexDir)
	if err != nil {
		t.Fatalf("LoadCatalog after first run: %v", err)
	}

	opts.Reindex = true
	if _, err := IndexCorpus(context.Background(), sourceDir, indexDir, opts); err != nil {
		t.Fatalf("second IndexCorpus: %v", err)
	}
	second, err := segment.LoadCatalog(indexDir)
	if err != nil {
		t.Fatalf("LoadCatalog after reindex: %v", err)
	}
	if len(second.Segments) != 1 || second.Segments[0] != first.Segments[0] {
		t.Fatalf("expected reindex to rebuild a single fresh segment with the same name, got %v (was %v)", second.Segments, first.Segments)
	}
}

func TestOptionsValidateRejectsBadChunking(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkOverlap = opts.ChunkSize
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected validation error when overlap >= chunk_size")
	}
}

func TestChunkTextOverlapsWindows(t *testing.T) {
	text := "a b c d e f g h"
	chunks := chunkText(text, 4, 2)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple overlapping chunks, got %v", chunks)
	}
	if chunks[0] != "a b c d" {
		t.Fatalf("first chunk = %q, want %q", chunks[0], "a b c d")
	}
}
