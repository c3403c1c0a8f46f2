// Package reference is the Reference Resolver: a forward-only walker over a
// FASTA file that hands out whole reference sequences by catalogue index.
package reference

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sampass-core/dict"
	"sampass-core/fasta"
	"sampass/internal/inputs"
)

// Window is the reference sequence a record aligns to. It is shared by every
// pair on that sequence and must not be mutated.
type Window struct {
	Index int
	Name  string
	Bases []byte // upper-case
}

// Len returns the number of bases.
func (w *Window) Len() int { return len(w.Bases) }

// Walker resolves catalogue indices to windows in ascending order.
type Walker struct {
	path string
	cat  dict.Dictionary
	rc   io.ReadCloser
	fr   *fasta.Reader
	cur  *Window
	next int // catalogue index of the next unread FASTA record
}

// Open builds the catalogue (from <path>.fai when present, otherwise by
// scanning the file once) and positions a walker at the first sequence.
func Open(path string) (*Walker, error) {
	if err := inputs.AssertReadable(path); err != nil {
		return nil, err
	}
	if path == inputs.Stdin {
		return nil, fmt.Errorf("reference %s: stdin cannot be read twice; pass a file", path)
	}
	cat, err := loadCatalogue(path)
	if err != nil {
		return nil, err
	}
	rc, err := inputs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference %s: %w", path, err)
	}
	return &Walker{path: path, cat: cat, rc: rc, fr: fasta.NewReader(rc, true)}, nil
}

func loadCatalogue(path string) (dict.Dictionary, error) {
	fai, err := os.Open(path + ".fai")
	if err == nil {
		defer func() { _ = fai.Close() }()
		d, err := fasta.ReadIndex(fai)
		if err != nil {
			return nil, fmt.Errorf("%s.fai: %w", path, err)
		}
		return d, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s.fai: %w", path, err)
	}
	rc, err := inputs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference %s: %w", path, err)
	}
	defer func() { _ = rc.Close() }()
	d, err := fasta.Catalogue(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Path returns the absolute path of the FASTA file when it can be resolved.
func (w *Walker) Path() string {
	if abs, err := filepath.Abs(w.path); err == nil {
		return abs
	}
	return w.path
}

// Dictionary returns the reference catalogue.
func (w *Walker) Dictionary() dict.Dictionary { return w.cat }

// Get returns the window for catalogue index i. Indices must not decrease
// between calls; asking for an earlier sequence means the alignments are not
// coordinate sorted.
func (w *Walker) Get(i int) (*Window, error) {
	if i < 0 || i >= len(w.cat) {
		return nil, fmt.Errorf("reference %s: index %d outside catalogue of %d sequences", w.path, i, len(w.cat))
	}
	if w.cur != nil {
		if w.cur.Index == i {
			return w.cur, nil
		}
		if i < w.cur.Index {
			return nil, fmt.Errorf("reference %s: requested %q (index %d) after %q (index %d); input is not coordinate sorted",
				w.path, w.cat[i].Name, i, w.cur.Name, w.cur.Index)
		}
	}
	for w.next <= i {
		want := w.cat[w.next]
		hint := 0
		if w.next == i {
			hint = want.Length
		}
		rec, err := w.fr.Next(hint)
		if err == io.EOF {
			return nil, fmt.Errorf("reference %s: ended before sequence %q", w.path, want.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", w.path, err)
		}
		if rec.ID != want.Name {
			return nil, fmt.Errorf("reference %s: found %q where the catalogue expects %q", w.path, rec.ID, want.Name)
		}
		if w.next == i {
			w.cur = &Window{Index: i, Name: rec.ID, Bases: rec.Seq}
		}
		w.next++
	}
	return w.cur, nil
}

// Close releases the FASTA file.
func (w *Walker) Close() error { return w.rc.Close() }
