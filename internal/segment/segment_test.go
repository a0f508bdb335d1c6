package segment

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleBatch() []ProcessedDoc {
	return []ProcessedDoc{
		{BookID: "a", Chunks: []Chunk{{Length: 4, Freqs: map[string]uint32{"quick": 1, "brown": 1, "fox": 1, "the": 1}}}},
		{BookID: "b", Chunks: []Chunk{{Length: 3, Freqs: map[string]uint32{"lazy": 1, "dog": 1, "sleeps": 1}}}},
		{BookID: "c", Chunks: []Chunk{{Length: 3, Freqs: map[string]uint32{"quick": 1, "lazy": 1, "fox": 1}}}},
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	segDir := filepath.Join(dir, "seg-0")
	w := NewWriter()
	meta, err := w.WriteSegment(sampleBatch(), 0, segDir)
	if err != nil {
		t.Fatalf("WriteSegment: %v", err)
	}
	if meta.NumDocs != 3 {
		t.Fatalf("NumDocs = %d, want 3", meta.NumDocs)
	}

	r, err := Open(segDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	df, ok, err := r.GetDF("quick")
	if err != nil || !ok {
		t.Fatalf("GetDF(quick): ok=%v err=%v", ok, err)
	}
	if df != 2 {
		t.Fatalf("df(quick) = %d, want 2", df)
	}

	iter, ok, err := r.GetPostings("quick")
	if err != nil || !ok {
		t.Fatalf("GetPostings(quick): ok=%v err=%v", ok, err)
	}
	var got []uint32
	for {
		docID, _, ok, err := iter.Next()
		if err != nil {
			t.Fatalf("iter.Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, docID)
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("postings for quick = %v, want [0 2]", got)
	}

	bookA, err := r.BookID(0)
	if err != nil || bookA != "a" {
		t.Fatalf("BookID(0) = %q, %v", bookA, err)
	}
	bookC, err := r.BookID(2)
	if err != nil || bookC != "c" {
		t.Fatalf("BookID(2) = %q, %v", bookC, err)
	}

	length0, err := r.DocLength(0)
	if err != nil || length0 != 4 {
		t.Fatalf("DocLength(0) = %d, %v", length0, err)
	}

	if _, ok, _ := r.GetDF("nonexistent"); ok {
		t.Fatalf("expected GetDF miss for nonexistent term")
	}
}

func TestOpenMissingManifestIsAbsent(t *testing.T) {
	dir := t.TempDir()
	// No meta.json written at all.
	if _, err := Open(dir); err != ErrMissingManifest {
		t.Fatalf("expected ErrMissingManifest, got %v", err)
	}
}

func TestFSTDeterminism(t *testing.T) {
	dir1 := filepath.Join(t.TempDir(), "seg-a")
	dir2 := filepath.Join(t.TempDir(), "seg-b")
	w := NewWriter()
	if _, err := w.WriteSegment(sampleBatch(), 0, dir1); err != nil {
		t.Fatalf("write 1: %v", err)
	}
	if _, err := w.WriteSegment(sampleBatch(), 0, dir2); err != nil {
		t.Fatalf("write 2: %v", err)
	}
	b1, err := os.ReadFile(filepath.Join(dir1, fileTermsFST))
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(filepath.Join(dir2, fileTermsFST))
	if err != nil {
		t.Fatal(err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("terms.fst differs across identical writes")
	}
}

func TestFuzzyTerms(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()
	if _, err := w.WriteSegment(sampleBatch(), 0, dir); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	matches, err := r.FuzzyTerms("quik", 1)
	if err != nil {
		t.Fatalf("FuzzyTerms: %v", err)
	}
	found := false
	for _, m := range matches {
		if m == "quick" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fuzzy match on %q to include %q, got %v", "quik", "quick", matches)
	}
}

func TestWriteSegmentRejectsEmptyBatch(t *testing.T) {
	w := NewWriter()
	if _, err := w.WriteSegment(nil, 0, t.TempDir()); err != ErrEmptyBatch {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}
