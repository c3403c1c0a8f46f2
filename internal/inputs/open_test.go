package inputs

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plain = ">seq1\nACGT\n>seq2\nNNnn\n"

func readPath(t *testing.T, path string) string {
	t.Helper()
	rc, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestOpen_Plain(t *testing.T) {
	t.Parallel()
	fn := filepath.Join(t.TempDir(), "x.fa")
	require.NoError(t, os.WriteFile(fn, []byte(plain), 0o644))
	assert.Equal(t, plain, readPath(t, fn))
}

func TestOpen_GzipByMagic(t *testing.T) {
	t.Parallel()
	fn := filepath.Join(t.TempDir(), "noext")
	fh, err := os.Create(fn)
	require.NoError(t, err)
	gw := gzip.NewWriter(fh)
	_, err = gw.Write([]byte(plain))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, fh.Close())

	assert.Equal(t, plain, readPath(t, fn))
}

func TestOpen_LZ4(t *testing.T) {
	t.Parallel()
	fn := filepath.Join(t.TempDir(), "x.sam.lz4")
	fh, err := os.Create(fn)
	require.NoError(t, err)
	zw := lz4.NewWriter(fh)
	_, err = zw.Write([]byte(plain))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, fh.Close())

	assert.Equal(t, plain, readPath(t, fn))
}

func TestOpen_Stdin(t *testing.T) {
	orig := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdin = r
	defer func() { os.Stdin = orig }()

	go func() {
		_, _ = io.WriteString(w, plain)
		_ = w.Close()
	}()
	assert.Equal(t, plain, readPath(t, Stdin))
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "missing.sam"))
	require.Error(t, err)
}

func TestAssertReadable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fn := filepath.Join(dir, "ok.sam")
	require.NoError(t, os.WriteFile(fn, []byte("x"), 0o644))

	require.NoError(t, AssertReadable(fn))
	require.NoError(t, AssertReadable(Stdin))

	err := AssertReadable(filepath.Join(dir, "nope.sam"))
	require.ErrorIs(t, err, ErrNotReadable)
	assert.Contains(t, err.Error(), "does not exist")

	err = AssertReadable(dir)
	require.ErrorIs(t, err, ErrNotReadable)
	assert.Contains(t, err.Error(), "directory")

	require.ErrorIs(t, AssertReadable(""), ErrNotReadable)
}
