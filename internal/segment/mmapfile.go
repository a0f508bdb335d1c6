package segment

import (
	"os"

	"github.com/blevesearch/mmap-go"
)

// mappedFile memory-maps a file read-only for its whole lifetime. Every
// segment file is opened this way: postings are read straight out of the
// mapping with no heap copy, and the mapping is shareable across goroutines
// once construction completes.
type mappedFile struct {
	f    *os.File
	m    mmap.MMap
	size int64
}

func openMapped(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		// mmap.Map refuses to map a zero-length file; an empty segment
		// file (e.g. no terms at all) is valid and simply has no bytes.
		return &mappedFile{f: f, m: nil, size: 0}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mappedFile{f: f, m: m, size: info.Size()}, nil
}

// Bytes returns the mapped region. It is read-only: writing to it is
// undefined behavior.
func (mf *mappedFile) Bytes() []byte {
	if mf == nil || mf.m == nil {
		return nil
	}
	return mf.m
}

func (mf *mappedFile) Close() error {
	if mf == nil {
		return nil
	}
	var err error
	if mf.m != nil {
		err = mf.m.Unmap()
	}
	if cerr := mf.f.Close(); err == nil {
		err = cerr
	}
	return err
}
