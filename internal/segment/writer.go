package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shelfdex/shelfdex/internal/codec"
)

// Writer builds one immutable segment directory from a batch of processed
// documents. A Writer holds no state between calls and can be shared
// across goroutines; each WriteSegment call is independent.
type Writer struct{}

// NewWriter constructs a Writer.
func NewWriter() *Writer { return &Writer{} }

// WriteSegment builds a complete segment directory at outDir from batch,
// assigning doc_ids sequentially starting at baseDocID. On any failure the
// caller is responsible for deleting the partially written directory;
// WriteSegment does not clean up after itself so a failed write's files
// remain available for postmortem inspection.
func (w *Writer) WriteSegment(batch []ProcessedDoc, baseDocID uint32, outDir string) (*Meta, error) {
	bookIDs, docLengths, freqMaps := flatten(batch)
	numDocs := len(bookIDs)
	if numDocs == 0 {
		return nil, ErrEmptyBatch
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating segment directory: %w", err)
	}

	inverted := make(map[string][]codec.Posting)
	var totalLength uint64
	for localID, freqs := range freqMaps {
		totalLength += uint64(docLengths[localID])
		docID := baseDocID + uint32(localID)
		for term, tf := range freqs {
			inverted[term] = append(inverted[term], codec.Posting{DocID: docID, TF: tf})
		}
	}

	terms := make([]string, 0, len(inverted))
	for term := range inverted {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var postingsDocs, postingsFreqs, offsets []byte
	for _, term := range terms {
		postings := inverted[term]
		sort.Slice(postings, func(i, j int) bool { return postings[i].DocID < postings[j].DocID })
		docBytes, freqBytes, err := codec.EncodePostingsSeparated(postings)
		if err != nil {
			return nil, fmt.Errorf("encoding postings for %q: %w", term, err)
		}
		rec := OffsetRecord{
			DocOffset:  uint64(len(postingsDocs)),
			DocLen:     uint32(len(docBytes)),
			FreqOffset: uint64(len(postingsFreqs)),
			FreqLen:    uint32(len(freqBytes)),
			DocCount:   uint32(len(postings)),
		}
		marshaled := rec.marshal()
		offsets = append(offsets, marshaled[:]...)
		postingsDocs = append(postingsDocs, docBytes...)
		postingsFreqs = append(postingsFreqs, freqBytes...)
	}

	fstBytes, err := buildFST(terms)
	if err != nil {
		return nil, fmt.Errorf("building fst: %w", err)
	}

	chunksBytes := encodeChunks(bookIDs)
	docLengthsBytes := encodeDocLengths(docLengths)

	if err := writeFileAtomic(outDir, fileTermsFST, fstBytes); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(outDir, fileOffsets, offsets); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(outDir, filePostingsDocs, postingsDocs); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(outDir, filePostingsFreqs, postingsFreqs); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(outDir, fileChunks, chunksBytes); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(outDir, fileDocLengths, docLengthsBytes); err != nil {
		return nil, err
	}

	meta := &Meta{
		NumDocs:     uint32(numDocs),
		BaseDocID:   baseDocID,
		TotalLength: totalLength,
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling meta.json: %w", err)
	}
	// meta.json is written last: its presence is the segment commit marker.
	if err := writeFileAtomic(outDir, fileMeta, metaBytes); err != nil {
		return nil, err
	}
	return meta, nil
}

func flatten(batch []ProcessedDoc) (bookIDs []string, docLengths []uint32, freqMaps []map[string]uint32) {
	for _, doc := range batch {
		for _, chunk := range doc.Chunks {
			bookIDs = append(bookIDs, doc.BookID)
			docLengths = append(docLengths, uint32(chunk.Length))
			freqMaps = append(freqMaps, chunk.Freqs)
		}
	}
	return
}

// encodeChunks packs the doc_id → book_id mapping as consecutive
// length-prefixed (uint16) UTF-8 strings, in doc_id order.
func encodeChunks(bookIDs []string) []byte {
	var out []byte
	var lenBuf [2]byte
	for _, id := range bookIDs {
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(id)))
		out = append(out, lenBuf[:]...)
		out = append(out, id...)
	}
	return out
}

func encodeDocLengths(lengths []uint32) []byte {
	out := make([]byte, 4*len(lengths))
	for i, l := range lengths {
		binary.LittleEndian.PutUint32(out[i*4:], l)
	}
	return out
}

// writeFileAtomic writes data to a temp file in dir and renames it into
// place, so a concurrent reader never observes a partially written file.
func writeFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s into place: %w", name, err)
	}
	return nil
}
