package ramindex

import (
	"testing"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/search"
)

func newTestIndex() *Index {
	an := analyzer.New(analyzer.Config{Language: analyzer.LanguageNone})
	return New(an, 0)
}

func TestInsertAssignsSequentialDocIDs(t *testing.T) {
	idx := newTestIndex()
	id0 := idx.Insert("a", "the quick brown fox", "")
	id1 := idx.Insert("b", "lazy dog sleeps", "")
	if id0 != 0 || id1 != 1 {
		t.Fatalf("expected doc_ids 0,1, got %d,%d", id0, id1)
	}
	if idx.NumDocs() != 2 {
		t.Fatalf("NumDocs = %d, want 2", idx.NumDocs())
	}
}

func TestSearchRanksExactMatchHighest(t *testing.T) {
	idx := newTestIndex()
	idA := idx.Insert("a", "the quick brown fox", "")
	idx.Insert("b", "lazy dog sleeps", "")
	idC := idx.Insert("c", "quick lazy fox", "")

	scores := idx.Search("quick fox", search.DefaultParams)
	// a and c both match both terms and both have 3 tokens ("the" is a
	// stopword), so their scores tie and the lower doc_id ranks first.
	top := search.TopK(scores, 3)
	if len(top) != 2 || top[0].DocID != idA || top[1].DocID != idC {
		t.Fatalf("expected doc a ranked first and doc c second: %v", top)
	}
	if _, sleepsScored := scores[1]; sleepsScored {
		t.Fatalf("doc b should not match query terms at all: %v", scores)
	}
}

func TestClearPreservesNextDocID(t *testing.T) {
	idx := newTestIndex()
	idx.Insert("a", "hello world", "")
	idx.Insert("b", "another document", "")
	if idx.NextDocID() != 2 {
		t.Fatalf("NextDocID = %d, want 2", idx.NextDocID())
	}
	idx.Clear()
	if idx.NumDocs() != 0 {
		t.Fatalf("expected 0 docs after clear, got %d", idx.NumDocs())
	}
	if idx.NextDocID() != 2 {
		t.Fatalf("NextDocID after Clear = %d, want 2 (preserved)", idx.NextDocID())
	}
	newID := idx.Insert("c", "fresh document", "")
	if newID != 2 {
		t.Fatalf("expected new doc_id 2 after clear, got %d", newID)
	}
}

func TestSnapshotOrderedByDocID(t *testing.T) {
	idx := newTestIndex()
	idx.Insert("a", "alpha text", "")
	idx.Insert("b", "beta text", "")
	idx.Insert("c", "gamma text", "")
	snap := idx.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i].DocID <= snap[i-1].DocID {
			t.Fatalf("snapshot not sorted by doc_id: %v", snap)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := newTestIndex()
	idx.Insert("a", "hello world", "")
	if scores := idx.Search("", search.DefaultParams); scores != nil {
		t.Fatalf("expected nil scores for empty query, got %v", scores)
	}
}
