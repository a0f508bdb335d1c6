package codec

// Posting is a single (doc_id, tf) pair. A term's posting list is the
// ordered sequence of its Postings, strictly increasing in DocID.
type Posting struct {
	DocID uint32
	TF    uint32
}

// EncodePostingsSeparated encodes postings (sorted strictly increasing by
// DocID) into two independent byte streams: doc-id deltas and term
// frequencies. Full 128-value blocks use the bit-packed block codec;
// the trailing <128 remainder uses the varint tail codec. The two streams
// can be decoded independently of each other's presence in memory, which
// lets scoring skip the frequency stream when a posting is filtered out.
func EncodePostingsSeparated(postings []Posting) (docBytes, freqBytes []byte, err error) {
	if len(postings) == 0 {
		return nil, nil, nil
	}
	deltas := make([]uint32, len(postings))
	freqs := make([]uint32, len(postings))
	prev := uint32(0)
	for i, p := range postings {
		if i > 0 && p.DocID <= postings[i-1].DocID {
			return nil, nil, ErrNotSorted
		}
		deltas[i] = p.DocID - prev
		prev = p.DocID
		freqs[i] = p.TF
	}
	return encodeStream(deltas), encodeStream(freqs), nil
}

func encodeStream(values []uint32) []byte {
	var out []byte
	i := 0
	for ; i+BlockSize <= len(values); i += BlockSize {
		var block [BlockSize]uint32
		copy(block[:], values[i:i+BlockSize])
		out = append(out, packBlock(block)...)
	}
	for ; i < len(values); i++ {
		out = putUvarint(out, values[i])
	}
	return out
}

// DecodePostings decodes count postings from the given doc-id-delta and
// term-frequency streams, reassembling absolute doc_ids from the deltas.
func DecodePostings(docBytes, freqBytes []byte, count int) ([]Posting, error) {
	if count == 0 {
		return nil, nil
	}
	deltas, err := decodeStream(docBytes, count)
	if err != nil {
		return nil, err
	}
	freqs, err := decodeStream(freqBytes, count)
	if err != nil {
		return nil, err
	}
	postings := make([]Posting, count)
	var docID uint32
	for i := 0; i < count; i++ {
		docID += deltas[i]
		postings[i] = Posting{DocID: docID, TF: freqs[i]}
	}
	return postings, nil
}

func decodeStream(buf []byte, count int) ([]uint32, error) {
	values := make([]uint32, 0, count)
	offset := 0
	fullBlocks := count / BlockSize
	for b := 0; b < fullBlocks; b++ {
		block, n, err := unpackBlock(buf[offset:])
		if err != nil {
			return nil, err
		}
		values = append(values, block[:]...)
		offset += n
	}
	remaining := count - len(values)
	for i := 0; i < remaining; i++ {
		v, n, err := readUvarint(buf[offset:])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		offset += n
	}
	if len(values) != count {
		return nil, ErrCountMismatch
	}
	return values, nil
}

// MergePostings merges two strictly-ordered, disjoint posting lists into a
// single strictly-ordered list, ready to be re-encoded with
// EncodePostingsSeparated. It is a pure function over decoded postings.
func MergePostings(a, b []Posting) ([]Posting, error) {
	merged := make([]Posting, 0, len(a)+len(b))
	i, j := 0, 0
	var lastDocID uint32
	hasLast := false
	for i < len(a) && j < len(b) {
		var next Posting
		switch {
		case a[i].DocID < b[j].DocID:
			next = a[i]
			i++
		case b[j].DocID < a[i].DocID:
			next = b[j]
			j++
		default:
			return nil, ErrNotDisjoint
		}
		if hasLast && next.DocID <= lastDocID {
			return nil, ErrNotSorted
		}
		merged = append(merged, next)
		lastDocID = next.DocID
		hasLast = true
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged, nil
}

// Encode is the external-facing single-blob codec primitive: it encodes a
// posting list into one self-describing byte stream (count, the doc
// stream's length, the doc stream, then the frequency stream, which runs
// to the end of the blob).
func Encode(postings []Posting) ([]byte, error) {
	docBytes, freqBytes, err := EncodePostingsSeparated(postings)
	if err != nil {
		return nil, err
	}
	out := putUvarint(nil, uint32(len(postings)))
	out = putUvarint(out, uint32(len(docBytes)))
	out = append(out, docBytes...)
	out = append(out, freqBytes...)
	return out, nil
}

// Decode is the inverse of Encode.
func Decode(blob []byte) ([]Posting, error) {
	count, n, err := readUvarint(blob)
	if err != nil {
		return nil, err
	}
	blob = blob[n:]
	docLen, n, err := readUvarint(blob)
	if err != nil {
		return nil, err
	}
	blob = blob[n:]
	if int(docLen) > len(blob) {
		return nil, ErrCountMismatch
	}
	docBytes := blob[:docLen]
	freqBytes := blob[docLen:]
	return DecodePostings(docBytes, freqBytes, int(count))
}
