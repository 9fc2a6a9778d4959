package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Semior001/tagfeed/pkg/fsx"
)

// JSONFile keeps the ledger as a single human-readable JSON object,
// keyed by article URL.
type JSONFile struct {
	path string
}

// NewJSONFile makes a new JSONFile storage at the given path.
func NewJSONFile(path string) *JSONFile { return &JSONFile{path: path} }

// Load reads the ledger file. A missing file is an empty ledger.
func (j *JSONFile) Load(context.Context) (map[string]Entry, error) {
	bts, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", j.path, err)
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal(bts, &entries); err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %v", ErrCorrupted, j.path, err)
	}

	return entries, nil
}

// Save atomically overwrites the ledger file.
func (j *JSONFile) Save(_ context.Context, entries map[string]Entry) error {
	if entries == nil {
		entries = map[string]Entry{}
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}

	if err := fsx.WriteFileAtomic(j.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", j.path, err)
	}

	return nil
}
