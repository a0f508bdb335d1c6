// Package realtime implements the real-time indexer: the component that
// federates the durable file searcher, the in-memory RAM index, and the
// write-ahead log into a single add/search/flush surface.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/ramindex"
	"github.com/shelfdex/shelfdex/internal/search"
	"github.com/shelfdex/shelfdex/internal/segment"
	"github.com/shelfdex/shelfdex/internal/wal"
)

const walFileName = "index.wal"

// FlushEvent is published after a successful flush, describing what
// changed for any external collaborator (e.g. a relational metadata
// store) watching the index.
type FlushEvent struct {
	SegmentName string
	NumDocs     uint32
	TotalDocs   uint32
}

// Publisher is the narrow interface the indexer needs to announce a
// flush; satisfied by the Kafka producer wrapper, nil-safe for callers
// that don't care.
type Publisher interface {
	PublishFlush(ctx context.Context, event FlushEvent) error
}

// Indexer is the real-time indexer: new documents land in the RAM index
// and the WAL immediately; flush() seals them into a durable segment.
type Indexer struct {
	mu sync.Mutex

	indexDir string
	an       *analyzer.Analyzer
	params   search.Params

	fileSearcher *search.FileSearcher
	ram          *ramindex.Index
	wal          *wal.WAL
	publisher    Publisher

	logger *slog.Logger
}

// Open constructs an Indexer over indexDir: it opens every committed
// segment, opens (or creates) the WAL, builds a RAM index whose
// next_doc_id starts at the segments' total_docs, and replays the WAL
// into it so a crash between "in-ram+wal" and "flushed" recovers cleanly.
func Open(indexDir string, an *analyzer.Analyzer, walOpts wal.Options, publisher Publisher) (*Indexer, error) {
	fs, err := search.NewFileSearcher(indexDir, an)
	if err != nil {
		return nil, fmt.Errorf("opening file searcher: %w", err)
	}

	catalog, err := segment.LoadCatalog(indexDir)
	if err != nil {
		fs.Close()
		return nil, err
	}

	walPath := filepath.Join(indexDir, walFileName)
	w, err := wal.Open(walPath, walOpts)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("opening wal: %w", err)
	}

	ram := ramindex.New(an, catalog.TotalDocs)

	records, err := wal.ReadAll(walPath)
	if err != nil {
		fs.Close()
		w.Close()
		return nil, fmt.Errorf("replaying wal: %w", err)
	}
	for _, rec := range records {
		// A doc_id below total_docs is already in a segment: a flush saved
		// the catalog but stopped before truncating the WAL.
		if rec.DocID < catalog.TotalDocs {
			continue
		}
		ram.InsertAt(rec.DocID, rec.BookID, rec.Content, rec.Metadata, rec.Length)
	}

	idx := &Indexer{
		indexDir:     indexDir,
		an:           an,
		params:       search.DefaultParams,
		fileSearcher: fs,
		ram:          ram,
		wal:          w,
		publisher:    publisher,
		logger:       slog.Default().With("component", "realtime-indexer"),
	}
	idx.logger.Info("real-time indexer opened",
		"index_dir", indexDir,
		"segments", len(catalog.Segments),
		"wal_replayed", len(records),
	)
	return idx, nil
}

// AddDocument inserts content into the RAM index, then durably appends it
// to the WAL. If the WAL append fails the document is still visible in
// RAM for this process's lifetime, but will not survive a crash; the
// error is returned so the caller can decide whether that's acceptable.
func (idx *Indexer) AddDocument(bookID, content, metadata string) (uint32, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	docID := idx.ram.Insert(bookID, content, metadata)
	doc, _ := idx.ram.GetDocument(docID)
	if err := idx.wal.Append(wal.Record{
		DocID:    docID,
		BookID:   bookID,
		Content:  content,
		Metadata: metadata,
		Length:   doc.Length,
	}); err != nil {
		return docID, fmt.Errorf("appending wal record for doc %d: %w", docID, err)
	}
	return docID, nil
}

// SearchHit is one ranked result from Search, carrying both ends of the
// global doc_id → book_id mapping regardless of whether the hit came
// from a durable segment or the RAM index.
type SearchHit struct {
	DocID  uint32
	Score  float64
	BookID string
}

// Search runs the file searcher and the RAM index searcher concurrently,
// merges their per-doc_id scores by summation, and returns the global
// top-k.
func (idx *Indexer) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	idx.mu.Lock()
	fs := idx.fileSearcher
	ram := idx.ram
	idx.mu.Unlock()

	var fileResults []search.Result
	var fileErr error
	var ramScores map[uint32]float64

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fileResults, fileErr = fs.Search(query, topK)
	}()
	go func() {
		defer wg.Done()
		ramScores = ram.Search(query, idx.params)
	}()
	wg.Wait()
	if fileErr != nil {
		return nil, fileErr
	}

	merged := make(map[uint32]float64, len(fileResults)+len(ramScores))
	bookIDs := make(map[uint32]string, len(fileResults))
	for _, r := range fileResults {
		merged[r.DocID] += r.Score
		bookIDs[r.DocID] = r.BookID
	}
	for docID, score := range ramScores {
		merged[docID] += score
		if _, ok := bookIDs[docID]; !ok {
			if doc, ok := ram.GetDocument(docID); ok {
				bookIDs[docID] = doc.BookID
			}
		}
	}
	if len(merged) == 0 {
		return nil, nil
	}

	top := search.TopK(merged, topK)
	hits := make([]SearchHit, 0, len(top))
	for _, sd := range top {
		hits = append(hits, SearchHit{DocID: sd.DocID, Score: sd.Score, BookID: bookIDs[sd.DocID]})
	}
	return hits, nil
}

// Flush seals the RAM index's current contents into a new durable
// segment, extends the index catalog, resets the RAM index, and
// truncates the WAL — in that order, so a crash mid-flush always leaves
// either the pre-flush or the post-flush state recoverable, never a gap.
func (idx *Indexer) Flush(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	snapshot := idx.ram.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}

	batch := idx.snapshotToBatch(snapshot)
	catalog, err := segment.LoadCatalog(idx.indexDir)
	if err != nil {
		return err
	}

	writer := segment.NewWriter()
	name := segment.NextSegmentName(catalog.Segments)
	segDir := filepath.Join(idx.indexDir, name)
	meta, err := writer.WriteSegment(batch, catalog.TotalDocs, segDir)
	if err != nil {
		return fmt.Errorf("sealing flush segment %s: %w", name, err)
	}

	reader, err := segment.Open(segDir)
	if err != nil {
		return fmt.Errorf("opening freshly sealed segment %s: %w", name, err)
	}

	newTotalLength := uint64(float64(catalog.AvgDL)*float64(catalog.TotalDocs)+0.5) + meta.TotalLength
	catalog.Segments = append(catalog.Segments, name)
	catalog.TotalDocs += meta.NumDocs
	if catalog.TotalDocs > 0 {
		catalog.AvgDL = float32(newTotalLength) / float32(catalog.TotalDocs)
	}
	if err := catalog.Save(idx.indexDir); err != nil {
		reader.Close()
		return fmt.Errorf("saving catalog after flush: %w", err)
	}

	idx.fileSearcher.AddSegment(reader)
	idx.ram.Clear()
	if err := idx.wal.Truncate(); err != nil {
		return fmt.Errorf("truncating wal after flush: %w", err)
	}

	idx.logger.Info("flushed ram index", "segment", name, "num_docs", meta.NumDocs, "total_docs", catalog.TotalDocs)

	if idx.publisher != nil {
		event := FlushEvent{SegmentName: name, NumDocs: meta.NumDocs, TotalDocs: catalog.TotalDocs}
		if err := idx.publisher.PublishFlush(ctx, event); err != nil {
			idx.logger.Error("publishing flush event failed", "error", err)
		}
	}
	return nil
}

// snapshotToBatch re-analyzes each RAM document's stored content to
// recover its term→tf map. The RAM index itself only keeps postings
// (term → doc_id list), not the reverse per-document map the segment
// writer needs, so flush pays one re-tokenization pass per document; this
// happens once per flush, not per query.
func (idx *Indexer) snapshotToBatch(snapshot []ramindex.SnapshotDoc) []segment.ProcessedDoc {
	batch := make([]segment.ProcessedDoc, 0, len(snapshot))
	for _, doc := range snapshot {
		toks := idx.an.Analyze(doc.Content)
		freqs := make(map[string]uint32, len(toks))
		for _, t := range toks {
			freqs[t.Term]++
		}
		batch = append(batch, segment.ProcessedDoc{
			BookID: doc.BookID,
			Chunks: []segment.Chunk{{Length: doc.Length, Freqs: freqs}},
		})
	}
	return batch
}

// Close releases the file searcher's memory mappings and the WAL's file
// handle.
func (idx *Indexer) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	walErr := idx.wal.Close()
	fsErr := idx.fileSearcher.Close()
	if walErr != nil {
		return walErr
	}
	return fsErr
}
