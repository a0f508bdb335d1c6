package segment

import "github.com/shelfdex/shelfdex/internal/codec"

// PostingsIter streams (doc_id, tf) pairs for one term's posting list out
// of the mapped postings_docs.bin / postings_freqs.bin regions, decoding
// one 128-value block at a time into a pair of fixed-size buffers rather
// than materializing the whole list. It yields exactly docCount pairs in
// strictly increasing doc_id order and then terminates.
type PostingsIter struct {
	docBytes  []byte
	freqBytes []byte
	docOff    int
	freqOff   int

	total     int
	fullTotal int // number of values carried by full 128-blocks
	delivered int

	docBlock  [codec.BlockSize]uint32
	freqBlock [codec.BlockSize]uint32
	blockLen  int
	blockPos  int

	curDocID uint32
}

func newPostingsIter(docBytes, freqBytes []byte, count int) *PostingsIter {
	return &PostingsIter{
		docBytes:  docBytes,
		freqBytes: freqBytes,
		total:     count,
		fullTotal: (count / codec.BlockSize) * codec.BlockSize,
	}
}

// Next returns the next (doc_id, tf) pair, or ok=false once docCount pairs
// have been delivered. The doc_id is global: the writer stores BaseDocID
// plus the local index and delta-encodes the list from 0.
func (it *PostingsIter) Next() (docID uint32, tf uint32, ok bool, err error) {
	if it.delivered >= it.total {
		return 0, 0, false, nil
	}
	if it.blockPos >= it.blockLen {
		if err := it.fillNext(); err != nil {
			return 0, 0, false, err
		}
	}
	delta := it.docBlock[it.blockPos]
	freq := it.freqBlock[it.blockPos]
	it.blockPos++
	it.delivered++
	it.curDocID += delta
	return it.curDocID, freq, true, nil
}

func (it *PostingsIter) fillNext() error {
	if it.delivered < it.fullTotal {
		docBlock, consumed, err := codec.UnpackBlock(it.docBytes[it.docOff:])
		if err != nil {
			return err
		}
		it.docOff += consumed
		freqBlock, consumed, err := codec.UnpackBlock(it.freqBytes[it.freqOff:])
		if err != nil {
			return err
		}
		it.freqOff += consumed
		it.docBlock = docBlock
		it.freqBlock = freqBlock
		it.blockLen = codec.BlockSize
		it.blockPos = 0
		return nil
	}
	// Trailing varint tail: decode the whole (< 128) remainder into the
	// same fixed buffers, one value at a time.
	remaining := it.total - it.delivered
	for i := 0; i < remaining; i++ {
		v, n, err := codec.ReadUvarint(it.docBytes[it.docOff:])
		if err != nil {
			return err
		}
		it.docOff += n
		it.docBlock[i] = v

		v, n, err = codec.ReadUvarint(it.freqBytes[it.freqOff:])
		if err != nil {
			return err
		}
		it.freqOff += n
		it.freqBlock[i] = v
	}
	it.blockLen = remaining
	it.blockPos = 0
	return nil
}
