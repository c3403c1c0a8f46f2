package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampass-core/dict"
)

const ref = ">chr1 desc\nacgtACGT\n>chr2\nGGCC\n>chr3\nTTTTAA\n"

func writeRef(t *testing.T, fai string) string {
	t.Helper()
	dir := t.TempDir()
	fn := filepath.Join(dir, "ref.fa")
	require.NoError(t, os.WriteFile(fn, []byte(ref), 0o644))
	if fai != "" {
		require.NoError(t, os.WriteFile(fn+".fai", []byte(fai), 0o644))
	}
	return fn
}

func TestOpen_CatalogueFromScan(t *testing.T) {
	t.Parallel()
	w, err := Open(writeRef(t, ""))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.Equal(t, dict.Dictionary{{Name: "chr1", Length: 8}, {Name: "chr2", Length: 4}, {Name: "chr3", Length: 6}}, w.Dictionary())
}

func TestOpen_CatalogueFromFai(t *testing.T) {
	t.Parallel()
	w, err := Open(writeRef(t, "chr1\t8\t12\t8\t9\nchr2\t4\t27\t4\t5\nchr3\t6\t38\t6\t7\n"))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	assert.Len(t, w.Dictionary(), 3)
}

func TestGet_ForwardAndSkip(t *testing.T) {
	t.Parallel()
	w, err := Open(writeRef(t, ""))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	win, err := w.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGT", string(win.Bases))
	assert.Equal(t, 8, win.Len())

	again, err := w.Get(0)
	require.NoError(t, err)
	assert.Same(t, win, again)

	win, err = w.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "chr3", win.Name)
	assert.Equal(t, "TTTTAA", string(win.Bases))
}

func TestGet_Backwards(t *testing.T) {
	t.Parallel()
	w, err := Open(writeRef(t, ""))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Get(1)
	require.NoError(t, err)
	_, err = w.Get(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not coordinate sorted")
}

func TestGet_OutOfRange(t *testing.T) {
	t.Parallel()
	w, err := Open(writeRef(t, ""))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Get(3)
	require.Error(t, err)
	_, err = w.Get(-1)
	require.Error(t, err)
}

func TestGet_FaiOutOfSync(t *testing.T) {
	t.Parallel()
	w, err := Open(writeRef(t, "chrX\t8\t12\t8\t9\n"))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Get(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"chrX"`)
}
