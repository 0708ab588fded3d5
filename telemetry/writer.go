package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// Writer appends Records as CSV. The header is written with the first
// record.
type Writer struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
	rows          int
}

// NewWriter writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create creates path, and its directory, and returns a Writer to it.
// An empty path returns a nil Writer, whose methods do nothing.
func Create(path string) (*Writer, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: creating directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating %s: %w", path, err)
	}
	return &Writer{w: f, closer: f}, nil
}

// Write appends rec.
func (w *Writer) Write(rec Record) error {
	if w == nil {
		return nil
	}
	records := []Record{rec}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.w); err != nil {
			return fmt.Errorf("telemetry: writing record: %w", err)
		}
		w.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, w.w); err != nil {
			return fmt.Errorf("telemetry: writing record: %w", err)
		}
	}
	w.rows++
	return nil
}

// Rows returns the number of records written.
func (w *Writer) Rows() int {
	if w == nil {
		return 0
	}
	return w.rows
}

// Close closes the underlying file when the Writer owns one.
func (w *Writer) Close() error {
	if w == nil || w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// ReadAll parses records previously written by a Writer.
func ReadAll(r io.Reader) ([]Record, error) {
	var records []Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("telemetry: reading records: %w", err)
	}
	return records, nil
}
