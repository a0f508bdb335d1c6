package segment

import "errors"

var (
	// ErrEmptyBatch is returned by the writer when asked to build a
	// segment from zero documents.
	ErrEmptyBatch = errors.New("segment: empty batch")
	// ErrMissingManifest is returned by Open when a directory has no
	// meta.json: the commit marker is absent, so the segment does not
	// exist yet (or was abandoned mid-write).
	ErrMissingManifest = errors.New("segment: missing meta.json")
	// ErrCorruptSegment wraps any failure to parse or validate a
	// segment's files once meta.json is present.
	ErrCorruptSegment = errors.New("segment: corrupt segment")
	// ErrOrdinalOutOfRange is returned when an FST ordinal does not
	// correspond to a valid offsets.bin record.
	ErrOrdinalOutOfRange = errors.New("segment: ordinal out of range")
	// ErrDocIDOutOfRange is returned by DocLength/BookID for a
	// local_doc_id outside [0, num_docs).
	ErrDocIDOutOfRange = errors.New("segment: doc_id out of range")
)
