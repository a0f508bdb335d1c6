package codec

import (
	"math/rand"
	"testing"
)

func TestRoundTripSmall(t *testing.T) {
	postings := []Posting{{0, 3}, {1, 1}, {5, 2}, {9, 7}}
	docBytes, freqBytes, err := EncodePostingsSeparated(postings)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodePostings(docBytes, freqBytes, len(postings))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(postings) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(postings))
	}
	for i := range postings {
		if got[i] != postings[i] {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, got[i], postings[i])
		}
	}
}

func TestRoundTripExactly128Entries(t *testing.T) {
	// Mirrors the spec's scenario: doc_id deltas 1, then 499, then 1s.
	postings := make([]Posting, 128)
	postings[0] = Posting{DocID: 0, TF: 3}
	postings[1] = Posting{DocID: 1, TF: 1}
	postings[2] = Posting{DocID: 500, TF: 2}
	for i := 3; i < 128; i++ {
		postings[i] = Posting{DocID: postings[i-1].DocID + 1, TF: 2}
	}
	docBytes, freqBytes, err := EncodePostingsSeparated(postings)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Exactly one block header + its packed payload, no varint tail.
	width := bitWidth(maxDelta(postings))
	wantLen := 1 + 16*width
	if len(docBytes) != wantLen {
		t.Fatalf("doc stream length = %d, want exactly one block (%d)", len(docBytes), wantLen)
	}
	got, err := DecodePostings(docBytes, freqBytes, len(postings))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range postings {
		if got[i] != postings[i] {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, got[i], postings[i])
		}
	}
}

func maxDelta(postings []Posting) uint32 {
	var max uint32
	prev := uint32(0)
	for _, p := range postings {
		d := p.DocID - prev
		if d > max {
			max = d
		}
		prev = p.DocID
	}
	return max
}

func TestRoundTripLargeRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	postings := make([]Posting, 0, 1000)
	docID := uint32(0)
	for i := 0; i < 1000; i++ {
		docID += uint32(1 + rng.Intn(50))
		postings = append(postings, Posting{DocID: docID, TF: uint32(1 + rng.Intn(20))})
	}
	docBytes, freqBytes, err := EncodePostingsSeparated(postings)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodePostings(docBytes, freqBytes, len(postings))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range postings {
		if got[i] != postings[i] {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, got[i], postings[i])
		}
	}
}

func TestEncodeRejectsUnsorted(t *testing.T) {
	_, _, err := EncodePostingsSeparated([]Posting{{5, 1}, {3, 1}})
	if err != ErrNotSorted {
		t.Fatalf("expected ErrNotSorted, got %v", err)
	}
}

func TestMergeDisjointSorted(t *testing.T) {
	a := []Posting{{1, 1}, {3, 2}, {10, 1}}
	b := []Posting{{2, 5}, {4, 1}, {20, 3}}
	merged, err := MergePostings(a, b)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := []uint32{1, 2, 3, 4, 10, 20}
	if len(merged) != len(want) {
		t.Fatalf("length mismatch: %+v", merged)
	}
	for i, docID := range want {
		if merged[i].DocID != docID {
			t.Fatalf("merged[%d].DocID = %d, want %d", i, merged[i].DocID, docID)
		}
	}
}

func TestMergeRejectsOverlap(t *testing.T) {
	a := []Posting{{1, 1}, {5, 1}}
	b := []Posting{{5, 2}}
	if _, err := MergePostings(a, b); err != ErrNotDisjoint {
		t.Fatalf("expected ErrNotDisjoint, got %v", err)
	}
}

func TestMergeThenEncodeRoundTrips(t *testing.T) {
	a := []Posting{{1, 1}, {3, 2}}
	b := []Posting{{2, 5}, {4, 1}}
	merged, err := MergePostings(a, b)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	docBytes, freqBytes, err := EncodePostingsSeparated(merged)
	if err != nil {
		t.Fatalf("encode merged: %v", err)
	}
	got, err := DecodePostings(docBytes, freqBytes, len(merged))
	if err != nil {
		t.Fatalf("decode merged: %v", err)
	}
	for i := range merged {
		if got[i] != merged[i] {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, got[i], merged[i])
		}
	}
}

func TestEncodeDecodeBlob(t *testing.T) {
	postings := []Posting{{0, 1}, {2, 3}, {8, 1}}
	blob, err := Encode(postings)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range postings {
		if got[i] != postings[i] {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, got[i], postings[i])
		}
	}
}

func BenchmarkEncodePostingsSeparated(b *testing.B) {
	postings := make([]Posting, 10000)
	docID := uint32(0)
	for i := range postings {
		docID += uint32(1 + i%7)
		postings[i] = Posting{DocID: docID, TF: uint32(1 + i%5)}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = EncodePostingsSeparated(postings)
	}
}

func BenchmarkDecodePostings(b *testing.B) {
	postings := make([]Posting, 10000)
	docID := uint32(0)
	for i := range postings {
		docID += uint32(1 + i%7)
		postings[i] = Posting{DocID: docID, TF: uint32(1 + i%5)}
	}
	docBytes, freqBytes, _ := EncodePostingsSeparated(postings)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodePostings(docBytes, freqBytes, len(postings))
	}
}
