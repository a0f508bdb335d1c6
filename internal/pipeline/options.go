package pipeline

import "fmt"

// Options is the complete configuration surface for IndexCorpus.
type Options struct {
	ChunkSize           int      `yaml:"chunk_size"`
	ChunkOverlap        int      `yaml:"chunk_overlap"`
	BatchSize           int      `yaml:"batch_size"`
	Stopwords           []string `yaml:"stopwords"`
	Workers             int      `yaml:"workers"`
	DownloadConcurrency int      `yaml:"download_concurrency"`
	Reindex             bool     `yaml:"reindex"`
}

// DefaultOptions mirrors the teacher repo's habit of shipping workable
// zero-config defaults alongside an explicit Options type.
func DefaultOptions() Options {
	return Options{
		ChunkSize:           1000,
		ChunkOverlap:        100,
		BatchSize:           1000,
		Workers:             4,
		DownloadConcurrency: 8,
	}
}

// Validate checks the options for internal consistency before a corpus
// run starts, rather than failing deep inside a worker goroutine.
func (o Options) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidOptions, o.ChunkSize)
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrInvalidOptions, o.ChunkOverlap)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidOptions, o.BatchSize)
	}
	if o.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidOptions, o.Workers)
	}
	if o.DownloadConcurrency <= 0 {
		return fmt.Errorf("%w: download_concurrency must be positive, got %d", ErrInvalidOptions, o.DownloadConcurrency)
	}
	return nil
}
