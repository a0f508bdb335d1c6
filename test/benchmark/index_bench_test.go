// Package benchmark contains Go benchmarks for the analyzer, RAM index, and
// real-time indexer, measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/ramindex"
	"github.com/shelfdex/shelfdex/internal/realtime"
	"github.com/shelfdex/shelfdex/internal/search"
	"github.com/shelfdex/shelfdex/internal/wal"
)

func newTestAnalyzer() *analyzer.Analyzer {
	return analyzer.New(analyzer.Config{Language: analyzer.LanguageNone})
}

// BenchmarkRAMIndexInsert measures per-document insert throughput into the
// in-memory inverted index.
func BenchmarkRAMIndexInsert(b *testing.B) {
	idx := ramindex.New(newTestAnalyzer(), 0)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		idx.Insert(docID, "this is a benchmark document with several terms for testing indexing performance", "")
	}
}

// BenchmarkRAMIndexSearch measures single-term lookup latency over 10 000
// documents already in the RAM index.
func BenchmarkRAMIndexSearch(b *testing.B) {
	idx := ramindex.New(newTestAnalyzer(), 0)
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		idx.Insert(docID, "distributed search engine with indexing and query processing", "")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := idx.Search("search", search.DefaultParams)
		_ = results
	}
}

// BenchmarkRAMIndexSnapshot measures the cost of snapshotting the index
// before a segment flush.
func BenchmarkRAMIndexSnapshot(b *testing.B) {
	idx := ramindex.New(newTestAnalyzer(), 0)
	for i := 0; i < 5000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		idx.Insert(docID, "testing snapshot performance with multiple terms and documents", "")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snapshot := idx.Snapshot()
		_ = snapshot
	}
}

// BenchmarkRealTimeIndexerAddDocument measures the end-to-end cost of
// landing a document in both the RAM index and the WAL.
func BenchmarkRealTimeIndexerAddDocument(b *testing.B) {
	idx, err := realtime.Open(b.TempDir(), newTestAnalyzer(), wal.Options{}, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		docID := fmt.Sprintf("bench-%d", i)
		if _, err := idx.AddDocument(docID, "benchmark document body for measuring indexing throughput", ""); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRealTimeIndexerSearch measures end-to-end search latency across
// 10 000 RAM-resident documents.
func BenchmarkRealTimeIndexerSearch(b *testing.B) {
	idx, err := realtime.Open(b.TempDir(), newTestAnalyzer(), wal.Options{}, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()

	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		content := fmt.Sprintf("this document covers %s %s %s in production systems",
			terms[i%len(terms)], terms[(i+2)%len(terms)], terms[(i+3)%len(terms)])
		if _, err := idx.AddDocument(docID, content, ""); err != nil {
			b.Fatal(err)
		}
	}

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, err := idx.Search(ctx, terms[i%len(terms)], 10)
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}
