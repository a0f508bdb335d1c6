package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/realtime"
	"github.com/shelfdex/shelfdex/internal/search"
	"github.com/shelfdex/shelfdex/internal/wal"
)

// BenchmarkTopK measures the cost of selecting the top-k scored docs out of
// score maps of varying size.
func BenchmarkTopK(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			scores := make(map[uint32]float64, numDocs)
			for i := 0; i < numDocs; i++ {
				scores[uint32(i)] = float64(i%97) / 10
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				top := search.TopK(scores, 10)
				_ = top
			}
		})
	}
}

// BenchmarkWandSearch measures WAND-pruned ranking with an increasing
// number of query terms, each backed by a synthetic posting list.
func BenchmarkWandSearch(b *testing.B) {
	termCounts := []int{1, 3, 5, 10}
	for _, tc := range termCounts {
		b.Run(fmt.Sprintf("terms_%d", tc), func(b *testing.B) {
			terms := make([]search.WandTerm, tc)
			for t := 0; t < tc; t++ {
				postings := make([]search.Posting, 500)
				for i := 0; i < 500; i++ {
					postings[i] = search.Posting{
						DocID:  uint32(i),
						TF:     uint32(i%5) + 1,
						DocLen: 180,
					}
				}
				terms[t] = search.WandTerm{IDF: 2.5, Postings: postings}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranked := search.WandSearch(terms, 200.0, 10, search.DefaultParams)
				_ = ranked
			}
		})
	}
}

// BenchmarkRealTimeIndexerConcurrentSearch measures concurrent query
// throughput against a RAM-resident real-time indexer.
func BenchmarkRealTimeIndexerConcurrentSearch(b *testing.B) {
	an := analyzer.New(analyzer.Config{Language: analyzer.LanguageNone})
	idx, err := realtime.Open(b.TempDir(), an, wal.Options{}, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()

	for d := 0; d < 1000; d++ {
		docID := fmt.Sprintf("doc-%d", d)
		if _, err := idx.AddDocument(docID, "distributed search analytics platform with distributed search indexing query processing and ranking engine", ""); err != nil {
			b.Fatal(err)
		}
	}

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results, err := idx.Search(ctx, "distributed search", 10)
			if err != nil {
				b.Fatal(err)
			}
			_ = results
		}
	})
}
