package segment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const catalogFile = "index.json"

// Catalog is the index-level manifest: the ordered list of segment
// sub-directories plus the corpus-wide totals needed for BM25 idf/avgdl
// once results are merged across segments. Segment sub-directories are
// named so their lexicographic order matches base_doc_id order.
type Catalog struct {
	Segments  []string `json:"segments"`
	TotalDocs uint32   `json:"total_docs"`
	AvgDL     float32  `json:"avgdl"`
}

// LoadCatalog reads index.json from dir. A missing file is not an error:
// it means an empty, freshly-created index directory.
func LoadCatalog(dir string) (Catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, catalogFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Catalog{}, nil
		}
		return Catalog{}, fmt.Errorf("reading %s: %w", catalogFile, err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("%w: parsing %s: %v", ErrCorruptSegment, catalogFile, err)
	}
	return c, nil
}

// Save writes index.json atomically via a temp-file-then-rename, the same
// commit idiom the segment writer uses for meta.json.
func (c Catalog) Save(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", catalogFile, err)
	}
	return writeFileAtomic(dir, catalogFile, data)
}

// NextSegmentName returns the directory name for the (n+1)-th segment,
// zero-padded so lexicographic order matches base_doc_id order.
func NextSegmentName(existing []string) string {
	return fmt.Sprintf("seg-%08d", len(existing))
}
