// Package source is the alignment Record Source: it opens a SAM file (plain,
// gzip or lz4; "-" for stdin) and yields records one at a time, forward only.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"sampass-core/sam"
	"sampass/internal/inputs"
)

// Reader is an opened alignment file.
type Reader struct {
	path string
	rc   io.ReadCloser
	sr   *sam.Reader
	n    uint64
}

// Open asserts path is readable, opens it and parses the header.
func Open(path string) (*Reader, error) {
	if err := inputs.AssertReadable(path); err != nil {
		return nil, err
	}
	rc, err := inputs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sr, err := sam.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Reader{path: path, rc: rc, sr: sr}, nil
}

// Path returns the absolute path when it can be resolved.
func (r *Reader) Path() string {
	if r.path == inputs.Stdin {
		return r.path
	}
	if abs, err := filepath.Abs(r.path); err == nil {
		return abs
	}
	return r.path
}

// Header returns the parsed SAM header.
func (r *Reader) Header() *sam.Header { return r.sr.Header() }

// Next returns the next record. ok is false once the file is exhausted.
func (r *Reader) Next(ctx context.Context) (*sam.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	rec, err := r.sr.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: after %d records: %w", r.path, r.n, err)
	}
	r.n++
	return rec, true, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.rc.Close() }
