package search

import (
	"container/heap"
	"sort"
)

// WandTerm is one query term's fully materialized posting list, used by
// the WAND searcher when postings already live in memory (e.g. scoring a
// caller-supplied batch) rather than being streamed from segment files.
type WandTerm struct {
	IDF      float64
	Postings []Posting
}

// Posting is a single (doc_id, tf, doc_len) triple scored against a term.
type Posting struct {
	DocID  uint32
	TF     uint32
	DocLen uint32
}

// WandSearch runs upper-bound-guided top-k selection over fully
// materialized posting lists: it avoids scoring every candidate once the
// remaining candidates' upper bounds can no longer displace the current
// top-k threshold.
func WandSearch(terms []WandTerm, avgdl float64, topK int, params Params) []ScoredDoc {
	if len(terms) == 0 || topK <= 0 {
		return nil
	}

	sort.Slice(terms, func(i, j int) bool {
		return len(terms[i].Postings) < len(terms[j].Postings)
	})
	tfByTerm := make([]map[uint32]uint32, len(terms))
	for i, term := range terms {
		tfByTerm[i] = make(map[uint32]uint32, len(term.Postings))
		for _, p := range term.Postings {
			tfByTerm[i][p.DocID] = p.TF
		}
	}

	candidates := collectCandidates(terms, topK)
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].bound > candidates[j].bound
	})

	h := &scoreHeap{}
	heap.Init(h)

	for _, c := range candidates {
		if h.Len() >= topK && c.bound <= (*h)[0].Score {
			// No later candidate (sorted by descending bound) can beat the
			// current worst entry in the heap: stop early.
			break
		}

		score := scoreCandidate(terms, tfByTerm, c.docID, c.docLen, avgdl, params)
		if h.Len() < topK {
			heap.Push(h, ScoredDoc{DocID: c.docID, Score: score})
		} else if score > (*h)[0].Score {
			heap.Pop(h)
			heap.Push(h, ScoredDoc{DocID: c.docID, Score: score})
		}
	}

	out := make([]ScoredDoc, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(ScoredDoc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})
	return out
}

type candidate struct {
	docID  uint32
	docLen uint32
	bound  float64
}

// collectCandidates gathers the documents the query could possibly match,
// preferring intersection across all posting lists when it still leaves
// at least 2*topK candidates (a precise candidate set is cheap to score
// in full), otherwise falling back to their union (an intersection that
// is too small risks dropping true top-k members whose per-term bound
// was merely pessimistic).
func collectCandidates(terms []WandTerm, topK int) []candidate {
	docLen := make(map[uint32]uint32)
	counts := make(map[uint32]int)
	bounds := make(map[uint32]float64)

	for _, term := range terms {
		bound := DefaultParams.UpperBound(term.IDF)
		seenInTerm := make(map[uint32]bool, len(term.Postings))
		for _, p := range term.Postings {
			if !seenInTerm[p.DocID] {
				seenInTerm[p.DocID] = true
				counts[p.DocID]++
				bounds[p.DocID] += bound
			}
			docLen[p.DocID] = p.DocLen
		}
	}

	intersection := make([]uint32, 0)
	for docID, c := range counts {
		if c == len(terms) {
			intersection = append(intersection, docID)
		}
	}

	docIDs := intersection
	if len(intersection) < 2*topK {
		docIDs = docIDs[:0]
		for docID := range counts {
			docIDs = append(docIDs, docID)
		}
	}

	candidates := make([]candidate, 0, len(docIDs))
	for _, docID := range docIDs {
		candidates = append(candidates, candidate{docID: docID, docLen: docLen[docID], bound: bounds[docID]})
	}
	return candidates
}

func scoreCandidate(terms []WandTerm, tfByTerm []map[uint32]uint32, docID uint32, docLen uint32, avgdl float64, params Params) float64 {
	var score float64
	for i, term := range terms {
		tf, ok := tfByTerm[i][docID]
		if !ok {
			continue
		}
		score += params.Score(term.IDF, tf, docLen, avgdl)
	}
	return score
}

// scoreHeap is a min-heap of ScoredDoc keyed by ascending score, giving
// O(log k) access to the current top-k threshold.
type scoreHeap []ScoredDoc

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(ScoredDoc)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
