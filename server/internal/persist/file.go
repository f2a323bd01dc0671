package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/espdash/espdash/server/internal/measure"
)

// File persists records as a single JSON array in one file, rewritten in
// full on every save. The write goes through a temp file in the same
// directory followed by a rename, so a concurrent reader (or a crash
// mid-write) never observes a half-written array.
type File struct {
	path string
}

// NewFile returns a File persister writing to path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads and parses the backing file. A missing file is not an error —
// it means no state has been persisted yet.
func (f *File) Load() ([]measure.Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: read %q: %w", f.path, err)
	}

	var records []measure.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("persist: parse %q: %w", f.path, err)
	}
	return records, nil
}

// Save overwrites the backing file with the full record sequence.
func (f *File) Save(records []measure.Record) error {
	if records == nil {
		records = []measure.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persist: create temp in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persist: write %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persist: close %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persist: rename to %q: %w", f.path, err)
	}
	return nil
}
