// Package archive provides read-only access to recorded trace containers.
// A container is a ZIP archive holding one or more line-delimited JSON event
// logs plus binary attachments addressed by name.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrCorruptArchive means the buffer is not a readable ZIP container.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrEntryNotFound means a named entry is absent from the archive.
	ErrEntryNotFound = errors.New("entry not found")
)

// Reader wraps an in-memory ZIP archive. The underlying buffer is never
// mutated and may be shared across readers.
type Reader struct {
	zr      *zip.Reader
	entries map[string]*zip.File
	names   []string
}

// Open parses buf as a ZIP archive. An unreadable container fails with
// ErrCorruptArchive; this is the only hard failure boundary of a load.
func Open(buf []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	r := &Reader{
		zr:      zr,
		entries: make(map[string]*zip.File, len(zr.File)),
		names:   make([]string, 0, len(zr.File)),
	}
	for _, f := range zr.File {
		r.entries[f.Name] = f
		r.names = append(r.names, f.Name)
	}
	return r, nil
}

// List returns entry names in archive enumeration order.
func (r *Reader) List() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Has reports whether the archive contains an entry with the given name.
func (r *Reader) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Read extracts the raw bytes of a named entry.
func (r *Reader) Read(name string) ([]byte, error) {
	f, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", name, err)
	}
	return data, nil
}
