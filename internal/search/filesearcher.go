package search

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/segment"
)

// Result is one ranked hit, already resolved to its caller-supplied
// book_id.
type Result struct {
	DocID  uint32
	Score  float64
	BookID string
}

// FileSearcher answers top-k BM25 queries against every segment committed
// to an index directory, without ever loading a posting list off the
// query's hot path into anything but the reader's own memory-mapped
// bytes.
type FileSearcher struct {
	mu sync.RWMutex

	an        *analyzer.Analyzer
	readers   []*segment.Reader
	totalDocs uint64
	avgdl     float64
	params    Params
}

// NewFileSearcher opens every segment listed in indexDir's catalog.
func NewFileSearcher(indexDir string, an *analyzer.Analyzer) (*FileSearcher, error) {
	catalog, err := segment.LoadCatalog(indexDir)
	if err != nil {
		return nil, err
	}

	fs := &FileSearcher{
		an:        an,
		totalDocs: uint64(catalog.TotalDocs),
		avgdl:     float64(catalog.AvgDL),
		params:    DefaultParams,
	}
	for _, name := range catalog.Segments {
		r, err := segment.Open(filepath.Join(indexDir, name))
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("opening segment %s: %w", name, err)
		}
		fs.readers = append(fs.readers, r)
	}
	return fs, nil
}

// Close releases every segment's memory mapping.
func (fs *FileSearcher) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var firstErr error
	for _, r := range fs.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AddSegment registers a newly sealed segment (e.g. from a real-time
// indexer's flush) and recomputes the corpus-wide totals used for idf and
// avgdl. It does not touch index.json; the caller is responsible for
// having already persisted the catalog.
func (fs *FileSearcher) AddSegment(r *segment.Reader) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	newTotalLength := uint64(fs.avgdl*float64(fs.totalDocs)) + r.TotalLength()
	fs.readers = append(fs.readers, r)
	fs.totalDocs += uint64(r.NumDocs())
	if fs.totalDocs > 0 {
		fs.avgdl = float64(newTotalLength) / float64(fs.totalDocs)
	}
}

// fuzzyDistanceFor mirrors the segment reader's own selection rule: a
// term longer than 4 runes tolerates 2 edits, otherwise 1.
func fuzzyDistanceFor(term string) uint8 {
	if len([]rune(term)) > 4 {
		return 2
	}
	return 1
}

// resolution is one (segment, term) pair a query token resolved to.
type resolution struct {
	segIdx int
	term   string
}

// resolveTerm finds, for a single query token, every (segment, term) the
// token maps to across all open segments: an exact match per segment, or
// failing that a fuzzy match via that segment's own FST. It returns the
// resolutions together with their summed document frequency, so the
// caller can compute one corpus-wide idf for the token.
func (fs *FileSearcher) resolveTerm(token string) ([]resolution, uint64, error) {
	var resolved []resolution
	var totalDF uint64

	for segIdx, r := range fs.readers {
		if df, ok, err := r.GetDF(token); err != nil {
			return nil, 0, err
		} else if ok {
			resolved = append(resolved, resolution{segIdx: segIdx, term: token})
			totalDF += uint64(df)
			continue
		}

		fuzzy, err := r.FuzzyTerms(token, fuzzyDistanceFor(token))
		if err != nil {
			return nil, 0, err
		}
		for _, term := range fuzzy {
			df, ok, err := r.GetDF(term)
			if err != nil {
				return nil, 0, err
			}
			if !ok {
				continue
			}
			resolved = append(resolved, resolution{segIdx: segIdx, term: term})
			totalDF += uint64(df)
		}
	}
	return resolved, totalDF, nil
}

// Search runs a BM25 query across every open segment and returns the
// top-k hits ordered by descending score, ascending doc_id on ties. A
// read lock is held for its full duration: a concurrent flush appending
// a segment waits rather than racing the in-flight query, consistent
// with segments themselves being immutable once committed.
func (fs *FileSearcher) Search(query string, topK int) ([]Result, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	toks := fs.an.Analyze(query)
	if len(toks) == 0 || topK <= 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(toks))

	scores := make(map[uint32]float64)
	for _, t := range toks {
		if _, dup := seen[t.Term]; dup {
			continue
		}
		seen[t.Term] = struct{}{}

		resolved, df, err := fs.resolveTerm(t.Term)
		if err != nil {
			return nil, err
		}
		if len(resolved) == 0 {
			continue
		}
		idf := IDF(fs.totalDocs, df)

		for _, res := range resolved {
			r := fs.readers[res.segIdx]
			iter, ok, err := r.GetPostings(res.term)
			if err != nil || !ok {
				continue
			}
			for {
				global, tf, more, err := iter.Next()
				if err != nil {
					return nil, err
				}
				if !more {
					break
				}
				docLen, err := r.DocLength(global - r.BaseDocID())
				if err != nil {
					return nil, err
				}
				scores[global] += fs.params.Score(idf, tf, docLen, fs.avgdl)
			}
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	top := TopK(scores, topK)
	results := make([]Result, 0, len(top))
	for _, sd := range top {
		bookID, err := fs.bookIDFor(sd.DocID)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{DocID: sd.DocID, Score: sd.Score, BookID: bookID})
	}
	return results, nil
}

// bookIDFor finds the segment owning globalDocID and maps it back to a
// local doc_id before asking that segment for the book_id.
func (fs *FileSearcher) bookIDFor(globalDocID uint32) (string, error) {
	for _, r := range fs.readers {
		base := r.BaseDocID()
		if globalDocID < base || globalDocID >= base+r.NumDocs() {
			continue
		}
		return r.BookID(globalDocID - base)
	}
	return "", fmt.Errorf("doc_id %d not owned by any open segment", globalDocID)
}
