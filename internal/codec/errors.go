package codec

import "errors"

var (
	// ErrTruncatedBlock is returned when a block-codec buffer ends before
	// its declared width's payload is fully present.
	ErrTruncatedBlock = errors.New("codec: truncated block")
	// ErrTruncatedTail is returned when a varint tail buffer is exhausted
	// mid-value.
	ErrTruncatedTail = errors.New("codec: truncated varint tail")
	// ErrCountMismatch is returned when decode is asked for a count that
	// does not match the bytes actually available.
	ErrCountMismatch = errors.New("codec: doc/freq stream length mismatch")
	// ErrNotDisjoint is returned by Merge when the two input posting
	// lists share a doc_id.
	ErrNotDisjoint = errors.New("codec: merge inputs are not disjoint")
	// ErrNotSorted is returned when a posting list's doc_id sequence is
	// not strictly increasing.
	ErrNotSorted = errors.New("codec: postings not strictly increasing by doc_id")
)
