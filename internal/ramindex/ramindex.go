// Package ramindex implements the uncompressed, in-memory inverted index
// for documents that have not yet been sealed into a segment.
package ramindex

import (
	"sync"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/codec"
	"github.com/shelfdex/shelfdex/internal/search"
)

// Document is one document held in the RAM index.
type Document struct {
	BookID   string
	Content  string
	Metadata string
	Length   int
}

// Index is the RAM index: an uncompressed `term -> postings` map plus a
// `doc_id -> Document` map, guarded by a single reader/writer lock (many
// searches, one inserter). next_doc_id survives Clear so documents later
// flushed into a segment never collide with a fresh RAM generation.
type Index struct {
	mu sync.RWMutex

	an *analyzer.Analyzer

	postings  map[string][]codec.Posting
	docs      map[uint32]Document
	nextDocID uint32

	numDocs     uint32
	totalLength uint64
}

// New constructs an empty Index whose first assigned doc_id is startDocID
// (the real-time indexer passes segments.total_docs here on open).
func New(an *analyzer.Analyzer, startDocID uint32) *Index {
	return &Index{
		an:        an,
		postings:  make(map[string][]codec.Posting),
		docs:      make(map[uint32]Document),
		nextDocID: startDocID,
	}
}

// Insert analyzes content, assigns it the next doc_id, and adds its
// postings to the index. It is linearized against other Insert calls and
// against Clear by the write lock.
func (idx *Index) Insert(bookID, content, metadata string) uint32 {
	toks := idx.an.Analyze(content)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	docID := idx.nextDocID
	idx.nextDocID++

	freqs := make(map[string]uint32, len(toks))
	for _, t := range toks {
		freqs[t.Term]++
	}
	for term, tf := range freqs {
		idx.postings[term] = append(idx.postings[term], codec.Posting{DocID: docID, TF: tf})
	}
	idx.docs[docID] = Document{BookID: bookID, Content: content, Metadata: metadata, Length: len(toks)}
	idx.numDocs++
	idx.totalLength += uint64(len(toks))
	return docID
}

// InsertAt re-inserts a document at an explicit doc_id, used only during
// WAL replay where the doc_id is already fixed by the record being
// replayed. The caller is responsible for replaying records in doc_id
// order so nextDocID tracks correctly.
func (idx *Index) InsertAt(docID uint32, bookID, content, metadata string, length int) {
	toks := idx.an.Analyze(content)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	freqs := make(map[string]uint32, len(toks))
	for _, t := range toks {
		freqs[t.Term]++
	}
	for term, tf := range freqs {
		idx.postings[term] = append(idx.postings[term], codec.Posting{DocID: docID, TF: tf})
	}
	idx.docs[docID] = Document{BookID: bookID, Content: content, Metadata: metadata, Length: length}
	idx.numDocs++
	idx.totalLength += uint64(length)
	if docID >= idx.nextDocID {
		idx.nextDocID = docID + 1
	}
}

// Search analyzes query and returns a doc_id -> score accumulator scored
// against this index's own num_docs and avgdl.
func (idx *Index) Search(query string, params search.Params) map[uint32]float64 {
	toks := idx.an.Analyze(query)
	if len(toks) == 0 {
		return nil
	}
	terms := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		terms[t.Term] = struct{}{}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.numDocs == 0 {
		return nil
	}
	avgdl := idx.avgDocLengthLocked()
	scores := make(map[uint32]float64)
	for term := range terms {
		postings := idx.postings[term]
		if len(postings) == 0 {
			continue
		}
		idf := search.IDF(uint64(idx.numDocs), uint64(len(postings)))
		for _, p := range postings {
			doc := idx.docs[p.DocID]
			scores[p.DocID] += params.Score(idf, p.TF, uint32(doc.Length), avgdl)
		}
	}
	return scores
}

// GetDocument returns the document stored at docID.
func (idx *Index) GetDocument(docID uint32) (Document, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	doc, ok := idx.docs[docID]
	return doc, ok
}

// NumDocs returns the number of documents currently held in RAM.
func (idx *Index) NumDocs() uint32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.numDocs
}

// AvgDocLength returns the RAM index's own average document length.
func (idx *Index) AvgDocLength() float64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.avgDocLengthLocked()
}

func (idx *Index) avgDocLengthLocked() float64 {
	if idx.numDocs == 0 {
		return 0
	}
	return float64(idx.totalLength) / float64(idx.numDocs)
}

// NextDocID reports the doc_id that will be assigned to the next Insert.
func (idx *Index) NextDocID() uint32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nextDocID
}

// Clear empties the index's postings and documents, preserving nextDocID
// so a subsequent flush-sealed segment's doc_ids never collide with a
// fresh RAM generation.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.postings = make(map[string][]codec.Posting)
	idx.docs = make(map[uint32]Document)
	idx.numDocs = 0
	idx.totalLength = 0
}

// Snapshot returns every document currently held, ordered by doc_id, for
// the real-time indexer to seal into a new segment. Snapshot does not
// clear the index; the caller clears it only after the segment write and
// the catalog save both succeed, and truncates the WAL after that.
func (idx *Index) Snapshot() []SnapshotDoc {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]SnapshotDoc, 0, idx.numDocs)
	for docID, doc := range idx.docs {
		out = append(out, SnapshotDoc{DocID: docID, Document: doc})
	}
	sortSnapshot(out)
	return out
}

// SnapshotDoc pairs a Document with the doc_id it was assigned.
type SnapshotDoc struct {
	DocID uint32
	Document
}

func sortSnapshot(docs []SnapshotDoc) {
	// Insertion sort is sufficient: a RAM generation holds only the
	// documents added since the last flush, never the whole corpus.
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && docs[j].DocID < docs[j-1].DocID; j-- {
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}
}
