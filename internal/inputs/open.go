// Package inputs opens input paths for the readers: "-" is stdin, and gzip or
// lz4 framed files are decompressed transparently.
package inputs

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open returns a reader over path's decompressed contents.
// Compression is detected by magic number or by the .gz / .lz4 suffix.
func Open(path string) (io.ReadCloser, error) {
	var fh io.ReadCloser
	if path == Stdin {
		fh = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		fh = f
	}
	br := bufio.NewReaderSize(fh, 64<<10)
	sig, _ := br.Peek(4)

	switch {
	case (len(sig) >= 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz"):
		gr, err := gzip.NewReader(br)
		if err != nil {
			_ = fh.Close()
			return nil, fmt.Errorf("%s: gzip: %w", path, err)
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	case hasPrefix(sig, lz4Magic) || strings.HasSuffix(path, ".lz4"):
		return &multiReadCloser{Reader: lz4.NewReader(br), closers: []io.Closer{fh}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{fh}}, nil
}

func hasPrefix(b, p []byte) bool {
	if len(b) < len(p) {
		return false
	}
	for i := range p {
		if b[i] != p[i] {
			return false
		}
	}
	return true
}

// ErrNotReadable marks failures of AssertReadable.
var ErrNotReadable = errors.New("input is not readable")

// AssertReadable checks that path names an existing, openable regular file
// (or "-" for stdin).
func AssertReadable(path string) error {
	if path == Stdin {
		return nil
	}
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrNotReadable)
	}
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s does not exist", ErrNotReadable, path)
	case err != nil:
		return fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	case st.IsDir():
		return fmt.Errorf("%w: %s is a directory, not a file", ErrNotReadable, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s cannot be opened: %v", ErrNotReadable, path, err)
	}
	return f.Close()
}
