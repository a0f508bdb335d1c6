package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/blevesearch/vellum"
)

// Reader memory-maps a previously committed segment directory and serves
// term lookups and posting iteration without copying file bytes. Once
// constructed a Reader is immutable and safe for concurrent use by many
// goroutines.
type Reader struct {
	dir  string
	meta Meta
	fst  *vellum.FST

	fstFile      *mappedFile
	offsetsFile  *mappedFile
	docsFile     *mappedFile
	freqsFile    *mappedFile
	chunksFile   *mappedFile
	lengthsFile  *mappedFile
	chunkOffsets []uint32 // num_docs+1 byte offsets into chunksFile's string payloads
}

// Open opens dir as a segment. A directory without meta.json is reported
// as ErrMissingManifest, distinguishing "segment not committed yet" from
// "segment committed but corrupt".
func Open(dir string) (*Reader, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, fileMeta))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissingManifest
		}
		return nil, fmt.Errorf("reading meta.json: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing meta.json: %v", ErrCorruptSegment, err)
	}

	r := &Reader{dir: dir, meta: meta}
	if err := r.openFiles(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) openFiles() error {
	var err error
	if r.fstFile, err = openMapped(filepath.Join(r.dir, fileTermsFST)); err != nil {
		return fmt.Errorf("%w: opening terms.fst: %v", ErrCorruptSegment, err)
	}
	if r.fst, err = openFST(r.fstFile.Bytes()); err != nil {
		return fmt.Errorf("%w: loading fst: %v", ErrCorruptSegment, err)
	}
	if r.offsetsFile, err = openMapped(filepath.Join(r.dir, fileOffsets)); err != nil {
		return fmt.Errorf("%w: opening offsets.bin: %v", ErrCorruptSegment, err)
	}
	if r.docsFile, err = openMapped(filepath.Join(r.dir, filePostingsDocs)); err != nil {
		return fmt.Errorf("%w: opening postings_docs.bin: %v", ErrCorruptSegment, err)
	}
	if r.freqsFile, err = openMapped(filepath.Join(r.dir, filePostingsFreqs)); err != nil {
		return fmt.Errorf("%w: opening postings_freqs.bin: %v", ErrCorruptSegment, err)
	}
	if r.chunksFile, err = openMapped(filepath.Join(r.dir, fileChunks)); err != nil {
		return fmt.Errorf("%w: opening chunks.bin: %v", ErrCorruptSegment, err)
	}
	if r.lengthsFile, err = openMapped(filepath.Join(r.dir, fileDocLengths)); err != nil {
		return fmt.Errorf("%w: opening doc_lengths.bin: %v", ErrCorruptSegment, err)
	}
	if uint32(len(r.lengthsFile.Bytes())) != r.meta.NumDocs*4 {
		return fmt.Errorf("%w: doc_lengths.bin size mismatch", ErrCorruptSegment)
	}
	return r.indexChunkOffsets()
}

// indexChunkOffsets does one linear scan over chunks.bin to record each
// doc_id's string start, so BookID is an O(1) slice into the mapping with
// no further parsing and no copy.
func (r *Reader) indexChunkOffsets() error {
	data := r.chunksFile.Bytes()
	offsets := make([]uint32, 0, r.meta.NumDocs+1)
	var pos uint32
	for i := uint32(0); i < r.meta.NumDocs; i++ {
		if int(pos)+2 > len(data) {
			return fmt.Errorf("%w: chunks.bin truncated", ErrCorruptSegment)
		}
		strLen := binary.LittleEndian.Uint16(data[pos : pos+2])
		pos += 2
		offsets = append(offsets, pos)
		pos += uint32(strLen)
		if int(pos) > len(data) {
			return fmt.Errorf("%w: chunks.bin truncated", ErrCorruptSegment)
		}
	}
	offsets = append(offsets, pos)
	r.chunkOffsets = offsets
	return nil
}

// BaseDocID returns the first global doc_id owned by this segment.
func (r *Reader) BaseDocID() uint32 { return r.meta.BaseDocID }

// NumDocs returns the number of documents in this segment.
func (r *Reader) NumDocs() uint32 { return r.meta.NumDocs }

// TotalLength returns the sum of document lengths in this segment.
func (r *Reader) TotalLength() uint64 { return r.meta.TotalLength }

// Terms reports the number of distinct terms in this segment's dictionary,
// derived from the fixed-width offsets table rather than walking the FST.
func (r *Reader) Terms() uint64 {
	return uint64(len(r.offsetsFile.Bytes())) / OffsetRecordSize
}

// GetDF returns a term's document frequency within this segment, or
// ok=false if the term is absent.
func (r *Reader) GetDF(term string) (df uint32, ok bool, err error) {
	rec, found, err := r.lookup(term)
	if err != nil || !found {
		return 0, found, err
	}
	return rec.DocCount, true, nil
}

// GetPostings returns a lazily-decoding iterator over term's posting
// list, or ok=false if the term is absent from this segment.
func (r *Reader) GetPostings(term string) (iter *PostingsIter, ok bool, err error) {
	rec, found, err := r.lookup(term)
	if err != nil || !found {
		return nil, found, err
	}
	docBytes := r.docsFile.Bytes()[rec.DocOffset : rec.DocOffset+uint64(rec.DocLen)]
	freqBytes := r.freqsFile.Bytes()[rec.FreqOffset : rec.FreqOffset+uint64(rec.FreqLen)]
	return newPostingsIter(docBytes, freqBytes, int(rec.DocCount)), true, nil
}

func (r *Reader) lookup(term string) (OffsetRecord, bool, error) {
	if r.fst == nil {
		return OffsetRecord{}, false, nil
	}
	ordinal, found, err := r.fst.Get([]byte(term))
	if err != nil {
		return OffsetRecord{}, false, fmt.Errorf("%w: fst lookup: %v", ErrCorruptSegment, err)
	}
	if !found {
		return OffsetRecord{}, false, nil
	}
	start := ordinal * OffsetRecordSize
	end := start + OffsetRecordSize
	offsets := r.offsetsFile.Bytes()
	if end > uint64(len(offsets)) {
		return OffsetRecord{}, false, ErrOrdinalOutOfRange
	}
	return unmarshalOffsetRecord(offsets[start:end]), true, nil
}

// FuzzyTerms returns every term in this segment's dictionary within
// maxDistance edits of query.
func (r *Reader) FuzzyTerms(query string, maxDistance uint8) ([]string, error) {
	if r.fst == nil {
		return nil, nil
	}
	return fuzzyTerms(r.fst, query, maxDistance)
}

// DocLength returns the analyzed token count of the document at
// localDocID (a segment-local index, i.e. global doc_id minus BaseDocID).
func (r *Reader) DocLength(localDocID uint32) (uint32, error) {
	if localDocID >= r.meta.NumDocs {
		return 0, ErrDocIDOutOfRange
	}
	data := r.lengthsFile.Bytes()
	return binary.LittleEndian.Uint32(data[localDocID*4:]), nil
}

// BookID returns the book_id owned by the document at localDocID,
// aliasing the mapped chunks.bin bytes with no copy.
func (r *Reader) BookID(localDocID uint32) (string, error) {
	if localDocID >= r.meta.NumDocs {
		return "", ErrDocIDOutOfRange
	}
	start := r.chunkOffsets[localDocID]
	end := r.chunkOffsets[localDocID+1]
	b := r.chunksFile.Bytes()[start:end]
	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

// Close unmaps every file backing this reader. Closing a reader whose
// postings are still being iterated by another goroutine is undefined
// behavior, matching the mapped-memory contract.
func (r *Reader) Close() error {
	var firstErr error
	for _, f := range []*mappedFile{r.fstFile, r.offsetsFile, r.docsFile, r.freqsFile, r.chunksFile, r.lengthsFile} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
