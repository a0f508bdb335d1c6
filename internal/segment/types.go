// Package segment implements the on-disk segment format: an immutable
// directory of files describing postings for a contiguous range of
// doc_ids, built by Writer and read back, memory-mapped, by Reader.
package segment

// Chunk is one unit of analyzed text that becomes a single doc_id when
// written into a segment: its token count and its term→tf map.
type Chunk struct {
	Length int
	Freqs  map[string]uint32
}

// ProcessedDoc groups the chunks produced from a single source document.
// A document may yield many chunks (and therefore many doc_ids) when the
// pipeline splits it into overlapping windows; all of them share BookID.
type ProcessedDoc struct {
	BookID string
	Chunks []Chunk
}

// Meta is a segment's commit marker, written last by the writer. Its
// presence on disk is what a reader treats as "this segment exists".
type Meta struct {
	NumDocs     uint32 `json:"num_docs"`
	BaseDocID   uint32 `json:"base_doc_id"`
	TotalLength uint64 `json:"total_length"`
}

const (
	fileTermsFST      = "terms.fst"
	fileOffsets       = "offsets.bin"
	filePostingsDocs  = "postings_docs.bin"
	filePostingsFreqs = "postings_freqs.bin"
	fileChunks        = "chunks.bin"
	fileDocLengths    = "doc_lengths.bin"
	fileMeta          = "meta.json"
)
