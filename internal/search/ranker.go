// Package search implements the file searcher, the WAND searcher, and the
// BM25 ranking primitives both share.
package search

import (
	"math"
	"sort"
)

// Params holds the BM25 tuning constants. Both the file searcher and the
// RAM index searcher use the same Params value (see the design notes on
// unifying k1 across the two), so scores from either source sit on a
// common scale and can be summed directly.
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams is k1=1.5, b=0.75, the unified constant pair used
// throughout this engine.
var DefaultParams = Params{K1: 1.5, B: 0.75}

// IDF computes the BM25 inverse document frequency for a term with
// document frequency df in a corpus of n documents.
func IDF(n, df uint64) float64 {
	return math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
}

// Score computes one posting's BM25 contribution given the term's idf,
// the posting's term frequency, the document's length, and the corpus
// average document length.
func (p Params) Score(idf float64, tf, docLen uint32, avgdl float64) float64 {
	if avgdl <= 0 {
		avgdl = 1
	}
	return idf * float64(tf) * (p.K1 + 1) / (float64(tf) + p.K1*(1-p.B+p.B*float64(docLen)/avgdl))
}

// UpperBound returns the BM25 limit as tf → ∞, dl → 0: the maximum
// contribution any single posting for this term could make. Used by the
// WAND searcher to prune candidates that cannot reach the top-k.
func (p Params) UpperBound(idf float64) float64 {
	return idf * (p.K1 + 1)
}

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	DocID uint32
	Score float64
}

// TopK truncates a score accumulator to its top k entries, sorted by
// descending score with ascending doc_id as tie-breaker. It sorts every
// entry with sort.Slice (O(n log n)) and then keeps the first k; Go's sort
// package does not expose a quickselect primitive.
func TopK(scores map[uint32]float64, k int) []ScoredDoc {
	if k <= 0 || len(scores) == 0 {
		return nil
	}
	out := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		out = append(out, ScoredDoc{DocID: docID, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
