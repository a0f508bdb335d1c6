package codec

import "encoding/binary"

// putUvarint appends the LEB128 encoding of v to buf and returns the
// extended slice. encoding/binary.PutUvarint already implements exactly
// the unsigned, 7-bit-group, MSB-continuation scheme this format calls
// for, so the tail codec is a thin wrapper rather than a reimplementation.
func putUvarint(buf []byte, v uint32) []byte {
	var tmp [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(tmp[:], uint64(v))
	return append(buf, tmp[:n]...)
}

// ReadUvarint decodes a single LEB128 value from buf, for callers stepping
// through a varint tail one value at a time (the segment reader's lazy
// PostingsIter).
func ReadUvarint(buf []byte) (uint32, int, error) {
	return readUvarint(buf)
}

// readUvarint decodes one LEB128 value from buf, returning the value and
// the number of bytes consumed.
func readUvarint(buf []byte) (uint32, int, error) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, 0, ErrTruncatedTail
	}
	return uint32(v), n, nil
}
