// Package fasta parses FASTA text. Reader pulls whole records one at a time;
// Scan pushes them to a callback and honors cancellation between lines.
package fasta

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// Record represents a parsed FASTA sequence.
type Record struct {
	ID  string
	Seq []byte
}

// Reader pulls FASTA records in file order.
type Reader struct {
	sc      *bufio.Scanner
	nextID  string
	started bool
	done    bool
	upper   bool
}

// NewReader wraps r. When upper is set, bases are upper-cased as they are read.
func NewReader(r io.Reader, upper bool) *Reader {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences (64 MiB)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)
	return &Reader{sc: sc, upper: upper}
}

// Next returns the next record, or io.EOF after the last one.
// With sizeHint > 0 the sequence buffer is preallocated.
func (r *Reader) Next(sizeHint int) (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}
	if !r.started {
		r.started = true
		for r.sc.Scan() {
			line := r.sc.Bytes()
			if len(line) == 0 {
				continue
			}
			if line[0] != '>' {
				return Record{}, fmt.Errorf("fasta: sequence data before first header")
			}
			r.nextID = parseHeaderID(line[1:])
			break
		}
		if err := r.sc.Err(); err != nil {
			return Record{}, fmt.Errorf("fasta scan: %w", err)
		}
		if r.nextID == "" {
			r.done = true
			return Record{}, io.EOF
		}
	}

	rec := Record{ID: r.nextID}
	if sizeHint > 0 {
		rec.Seq = make([]byte, 0, sizeHint)
	}
	for r.sc.Scan() {
		line := r.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			r.nextID = parseHeaderID(line[1:])
			return rec, nil
		}
		line = bytes.TrimSpace(line)
		if r.upper {
			line = bytes.ToUpper(line)
		}
		rec.Seq = append(rec.Seq, line...)
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("fasta scan: %w", err)
	}
	r.done = true
	return rec, nil
}

// Scan parses FASTA from r and emits each record.
// It is cancelable: returning promptly when ctx is Done.
func Scan(ctx context.Context, r io.Reader, emit func(Record) error) error {
	fr := NewReader(r, false)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rec, err := fr.Next(0)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
}

func parseHeaderID(hdr []byte) string {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i])
	}
	return string(hdr)
}
