package segment

import (
	"bytes"
	"fmt"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
)

// buildFST constructs the terms.fst bytes for a lexicographically sorted
// term list, assigning each term its index as the FST value (its
// offsets.bin ordinal). Building from a sorted stream twice produces
// byte-identical output, since vellum's builder is a pure function of the
// insert sequence.
func buildFST(sortedTerms []string) ([]byte, error) {
	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("creating fst builder: %w", err)
	}
	for ordinal, term := range sortedTerms {
		if err := builder.Insert([]byte(term), uint64(ordinal)); err != nil {
			return nil, fmt.Errorf("inserting term %q: %w", term, err)
		}
	}
	if err := builder.Close(); err != nil {
		return nil, fmt.Errorf("closing fst builder: %w", err)
	}
	return buf.Bytes(), nil
}

// openFST loads a previously built FST from its mapped bytes without
// copying them.
func openFST(data []byte) (*vellum.FST, error) {
	if len(data) == 0 {
		// A segment with no terms at all never happens in practice (the
		// writer refuses an empty batch), but an empty dictionary is
		// still well-defined: every lookup simply misses.
		return nil, nil
	}
	return vellum.Load(data)
}

// fuzzyDistance implements the segment reader's selection rule: 2 when the
// term is longer than 4 runes, else 1.
func fuzzyDistance(term string) uint8 {
	if len([]rune(term)) > 4 {
		return 2
	}
	return 1
}

// fuzzyTerms walks fst for every term within maxDistance edits of query,
// using a Levenshtein automaton composed with the FST's own traversal so
// no term is materialized unless it actually matches.
func fuzzyTerms(fst *vellum.FST, query string, maxDistance uint8) ([]string, error) {
	builder, err := levenshtein.NewLevenshteinAutomatonBuilder(maxDistance, false)
	if err != nil {
		return nil, fmt.Errorf("building levenshtein automaton builder: %w", err)
	}
	dfa, err := builder.BuildDfa(query, maxDistance)
	if err != nil {
		return nil, fmt.Errorf("building dfa for %q: %w", query, err)
	}
	itr, err := fst.Search(dfa, nil, nil)
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, fmt.Errorf("searching fst: %w", err)
	}
	var matches []string
	for err == nil {
		key, _ := itr.Current()
		matches = append(matches, string(key))
		err = itr.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, fmt.Errorf("iterating fuzzy matches: %w", err)
	}
	return matches, nil
}
