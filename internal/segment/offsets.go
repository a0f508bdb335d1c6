package segment

import "encoding/binary"

// OffsetRecordSize is the fixed width of one offsets.bin record, as laid
// out below. All integers are little-endian.
const OffsetRecordSize = 28

// OffsetRecord locates one term's posting streams within
// postings_docs.bin and postings_freqs.bin.
type OffsetRecord struct {
	DocOffset  uint64
	DocLen     uint32
	FreqOffset uint64
	FreqLen    uint32
	DocCount   uint32
}

// marshal writes the record into a fixed 28-byte buffer.
func (r OffsetRecord) marshal() [OffsetRecordSize]byte {
	var buf [OffsetRecordSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.DocOffset)
	binary.LittleEndian.PutUint32(buf[8:12], r.DocLen)
	binary.LittleEndian.PutUint64(buf[12:20], r.FreqOffset)
	binary.LittleEndian.PutUint32(buf[20:24], r.FreqLen)
	binary.LittleEndian.PutUint32(buf[24:28], r.DocCount)
	return buf
}

func unmarshalOffsetRecord(buf []byte) OffsetRecord {
	return OffsetRecord{
		DocOffset:  binary.LittleEndian.Uint64(buf[0:8]),
		DocLen:     binary.LittleEndian.Uint32(buf[8:12]),
		FreqOffset: binary.LittleEndian.Uint64(buf[12:20]),
		FreqLen:    binary.LittleEndian.Uint32(buf[20:24]),
		DocCount:   binary.LittleEndian.Uint32(buf[24:28]),
	}
}
