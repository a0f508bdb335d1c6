// Package wal implements the write-ahead log that gives the RAM index
// durability across crashes: an append-only, newline-delimited sequence of
// JSON document records.
package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Record is one self-contained logged document.
type Record struct {
	BookID   string `json:"book_id"`
	Content  string `json:"content"`
	Metadata string `json:"metadata"`
	Length   int    `json:"length"`
	DocID    uint32 `json:"doc_id"`
}

// Options configures durability behavior.
type Options struct {
	// Fsync forces a synchronized disk flush after every Append. Off by
	// default: the base contract only requires surviving a process
	// crash, not a full power loss, and most callers would rather not
	// pay an fsync per document.
	Fsync bool
}

// WAL is the write-ahead log. It holds an exclusive lock: only the
// real-time indexer that owns it ever appends or truncates.
type WAL struct {
	mu   sync.Mutex
	path string
	opts Options
	f    *os.File
	w    *bufio.Writer
}

// Open opens (creating if necessary) the WAL file at path for appending.
func Open(path string, opts Options) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening wal: %w", err)
	}
	return &WAL{
		path: path,
		opts: opts,
		f:    f,
		w:    bufio.NewWriter(f),
	}, nil
}

// Append serializes rec as one line and writes it, flushing the
// user-space buffer to the operating system. A synchronized disk flush
// only happens when Options.Fsync is set.
func (w *WAL) Append(rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling wal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.w.Write(line); err != nil {
		return fmt.Errorf("writing wal record: %w", err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing wal record terminator: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flushing wal buffer: %w", err)
	}
	if w.opts.Fsync {
		if err := w.f.Sync(); err != nil {
			return fmt.Errorf("syncing wal: %w", err)
		}
	}
	return nil
}

// ReadAll parses every record currently in the WAL, in append order.
// Records that fail to parse are silently skipped: a torn tail write from
// a crash mid-append must not prevent recovery of everything before it.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening wal for replay: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil && err != io.ErrUnexpectedEOF {
		return records, fmt.Errorf("scanning wal: %w", err)
	}
	return records, nil
}

// Truncate flushes, then reopens the WAL with length 0, discarding every
// record written so far. Called after the real-time indexer has sealed
// the RAM index into a durable segment.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flushing before truncate: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("closing wal before truncate: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("reopening wal after truncate: %w", err)
	}
	w.f = f
	w.w = bufio.NewWriter(f)
	return nil
}

// Close flushes and closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flushing wal on close: %w", err)
	}
	return w.f.Close()
}
