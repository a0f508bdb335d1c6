// Package pipeline implements the bounded, three-stage corpus indexing
// pipeline: a concurrency-limited loader, a CPU-parallel processor, and a
// single-threaded indexer that seals batches into segments.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/segment"
	"github.com/shelfdex/shelfdex/pkg/resilience"
)

// parseRetry governs retries around reading and parsing a single source
// file. Source corpora are sometimes mounted over NFS or synced from
// object storage, where a read can fail transiently mid-walk.
var parseRetry = resilience.RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

// loadedDoc is the loader stage's output: a discovered source file's
// book_id and path. It carries no file bytes; the processor stage reads
// and parses the file itself.
type loadedDoc struct {
	bookID string
	path   string
}

// Result is the summary IndexCorpus returns.
type Result struct {
	NumBooks  int
	NumChunks int
}

// IndexCorpus walks sourceDir, analyzes every document it finds, and
// writes the resulting segments into indexDir. Opts.Reindex, if set,
// deletes any segments already present before the run starts.
func IndexCorpus(ctx context.Context, sourceDir, indexDir string, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	logger := slog.Default().With("component", "pipeline")

	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating index dir: %w", err)
	}

	catalog, err := segment.LoadCatalog(indexDir)
	if err != nil {
		return Result{}, err
	}
	if opts.Reindex {
		for _, name := range catalog.Segments {
			if err := os.RemoveAll(filepath.Join(indexDir, name)); err != nil {
				return Result{}, fmt.Errorf("removing segment %s for reindex: %w", name, err)
			}
		}
		catalog = segment.Catalog{}
	}

	paths, err := discoverSources(sourceDir)
	if err != nil {
		return Result{}, err
	}
	logger.Info("pipeline starting", "source_dir", sourceDir, "documents", len(paths))

	an := analyzer.New(analyzer.Config{Stopwords: opts.Stopwords})

	loaded := make(chan loadedDoc, opts.DownloadConcurrency)
	processed := make(chan segment.ProcessedDoc, 1) // load-bearing: caps peak in-flight memory to one batch

	var loadErr, processErr, indexErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(loaded)
		loadErr = runLoader(ctx, paths, opts.DownloadConcurrency, loaded)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(processed)
		processErr = runProcessor(ctx, loaded, opts, an, processed)
	}()

	var result Result
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, indexErr = runIndexer(processed, indexDir, opts.BatchSize, &catalog)
	}()

	wg.Wait()

	if loadErr != nil {
		return Result{}, loadErr
	}
	if processErr != nil {
		return Result{}, processErr
	}
	if indexErr != nil {
		return Result{}, indexErr
	}

	logger.Info("pipeline finished", "num_books", result.NumBooks, "num_chunks", result.NumChunks)
	return result, nil
}

var knownExtensions = map[string]bool{".txt": true, ".epub": true, ".pdf": true}

func discoverSources(sourceDir string) ([]loadedDoc, error) {
	var docs []loadedDoc
	err := filepath.WalkDir(sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !knownExtensions[filepath.Ext(path)] {
			return nil
		}
		bookID := filepath.Base(path)
		bookID = bookID[:len(bookID)-len(filepath.Ext(bookID))]
		docs = append(docs, loadedDoc{bookID: bookID, path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source dir: %w", err)
	}
	return docs, nil
}

// runLoader fans discovered paths into the loaded channel, bounded by a
// download-concurrency semaphore. It does no file I/O itself: each
// goroutine only hands a path on, and reading happens in processOne.
func runLoader(ctx context.Context, docs []loadedDoc, concurrency int, out chan<- loadedDoc) error {
	sem := semaphore.NewWeighted(int64(concurrency))
	var mu sync.Mutex
	var firstErr error

	var wg sync.WaitGroup
	for _, d := range docs {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("acquiring loader semaphore: %w", err)
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(d loadedDoc) {
			defer wg.Done()
			defer sem.Release(1)
			select {
			case out <- d:
			case <-ctx.Done():
			}
		}(d)
	}
	wg.Wait()
	return firstErr
}

// runProcessor parses, chunks, and analyzes every loaded document, using a
// fixed worker pool for CPU-bound analysis work.
func runProcessor(ctx context.Context, in <-chan loadedDoc, opts Options, an *analyzer.Analyzer, out chan<- segment.ProcessedDoc) error {
	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup

	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arena := analyzer.NewArena(64 * 1024)
			for d := range in {
				doc, err := processOne(ctx, d, opts, an, arena)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func processOne(ctx context.Context, d loadedDoc, opts Options, an *analyzer.Analyzer, arena *analyzer.Arena) (segment.ProcessedDoc, error) {
	var text string
	err := resilience.Retry(ctx, "parse_document", parseRetry, func() error {
		t, err := parseDocument(d.path)
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	if err != nil {
		return segment.ProcessedDoc{}, err
	}

	windows := chunkText(text, opts.ChunkSize, opts.ChunkOverlap)
	chunks := make([]segment.Chunk, 0, len(windows))
	for _, w := range windows {
		arena.Reset()
		toks := an.AnalyzeInto(w, arena)
		counts := make(map[string]uint32, len(toks))
		for _, t := range toks {
			counts[t.Term]++
		}
		// Token strings alias the arena, which the next window overwrites;
		// the chunk keeps its own copy of each distinct term.
		freqs := make(map[string]uint32, len(counts))
		for term, tf := range counts {
			freqs[strings.Clone(term)] = tf
		}
		chunks = append(chunks, segment.Chunk{Length: len(toks), Freqs: freqs})
	}
	return segment.ProcessedDoc{BookID: d.bookID, Chunks: chunks}, nil
}

// runIndexer accumulates processed documents until batchSize is reached,
// then seals each batch into a new segment. It runs single-threaded: only
// one goroutine ever calls segment.Writer.WriteSegment.
func runIndexer(in <-chan segment.ProcessedDoc, indexDir string, batchSize int, catalog *segment.Catalog) (Result, error) {
	writer := segment.NewWriter()
	var result Result
	var batch []segment.ProcessedDoc

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		name := segment.NextSegmentName(catalog.Segments)
		meta, err := writer.WriteSegment(batch, catalog.TotalDocs, filepath.Join(indexDir, name))
		if err != nil {
			return fmt.Errorf("writing segment %s: %w", name, err)
		}
		catalog.Segments = append(catalog.Segments, name)
		newTotalDocs := catalog.TotalDocs + meta.NumDocs
		newTotalLength := uint64(float64(catalog.AvgDL)*float64(catalog.TotalDocs)+0.5) + meta.TotalLength
		catalog.TotalDocs = newTotalDocs
		if newTotalDocs > 0 {
			catalog.AvgDL = float32(newTotalLength) / float32(newTotalDocs)
		}
		for _, doc := range batch {
			result.NumBooks++
			result.NumChunks += len(doc.Chunks)
		}
		batch = batch[:0]
		return catalog.Save(indexDir)
	}

	for doc := range in {
		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return Result{}, err
			}
		}
	}
	if err := flush(); err != nil {
		return Result{}, err
	}
	return result, nil
}
