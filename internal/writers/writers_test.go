package writers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"sampass/pkg/api"
)

func sampleDoc() api.DocumentV1 {
	return api.DocumentV1{
		Summary: api.SummaryV1{
			RunID: "run-1", Source: "/data/in.sam", Consumers: []string{"counts", "refcounts"},
			Pulled: 12, Accepted: 10, Batches: 1, TailSize: 2, Stop: "exhausted", ElapsedMS: 5,
		},
		Reports: []api.ReportV1{
			{RunID: "run-1", Consumer: "counts", Counters: map[string]int64{"total": 10, "mapped": 8}},
			{
				RunID: "run-1", Consumer: "refcounts",
				Values: map[string]float64{"mean": 1.5},
				Table: &api.TableV1{
					Columns: []string{"reference", "reads"},
					Rows:    [][]string{{"chr1", "6"}, {"chr2", "2"}},
				},
			},
		},
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "jsonl", "text", "yaml"}, Formats())
	assert.True(t, Known("text"))
	assert.False(t, Known("sqlite"))
}

func TestWrite_UnknownFormat(t *testing.T) {
	var b bytes.Buffer
	err := Write("nope", &b, sampleDoc())
	assert.ErrorContains(t, err, "unknown report format")
}

func TestWrite_Text(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write("text", &b, sampleDoc()))
	out := strings.ToLower(b.String())
	for _, want := range []string{"run run-1", "records accepted", "counts", "mapped", "chr1", "2 rows", "1.5000"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "counts"), strings.Index(out, "chr1"))
}

func TestWrite_JSON(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write("json", &b, sampleDoc()))
	var got api.DocumentV1
	require.NoError(t, json.Unmarshal(b.Bytes(), &got))
	assert.Equal(t, sampleDoc(), got)
	assert.Contains(t, b.String(), `"run_id": "run-1"`)
}

func TestWrite_JSONKeepsNamesVerbatim(t *testing.T) {
	doc := sampleDoc()
	doc.Reports[1].Table.Rows[0][0] = "HLA-A*01:01<alt>&1"
	var b bytes.Buffer
	require.NoError(t, Write("json", &b, doc))
	assert.Contains(t, b.String(), `"HLA-A*01:01<alt>&1"`)
}

func TestWrite_JSONL(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write("jsonl", &b, sampleDoc()))
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	var r api.ReportV1
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &r))
	assert.Equal(t, "refcounts", r.Consumer)
	assert.Equal(t, [][]string{{"chr1", "6"}, {"chr2", "2"}}, r.Table.Rows)
}

func TestWrite_YAML(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write("yaml", &b, sampleDoc()))
	var got api.DocumentV1
	require.NoError(t, yaml.Unmarshal(b.Bytes(), &got))
	assert.Equal(t, "run-1", got.Summary.RunID)
	require.Len(t, got.Reports, 2)
	assert.EqualValues(t, 8, got.Reports[0].Counters["mapped"])
}

type pipeWriter struct{}

func (pipeWriter) Write([]byte) (int, error) { return 0, syscall.EPIPE }

func TestWrite_BrokenPipeIsNotAnError(t *testing.T) {
	for _, f := range Formats() {
		assert.NoError(t, Write(f, pipeWriter{}, sampleDoc()), f)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_OtherErrorsSurface(t *testing.T) {
	assert.ErrorContains(t, Write("text", failWriter{}, sampleDoc()), "disk full")
	assert.ErrorContains(t, Write("jsonl", failWriter{}, sampleDoc()), "disk full")
}

func TestIsBrokenPipe(t *testing.T) {
	assert.True(t, IsBrokenPipe(syscall.EPIPE))
	assert.True(t, IsBrokenPipe(io.ErrClosedPipe))
	assert.True(t, IsBrokenPipe(fmt.Errorf("write stdout: %w", syscall.ECONNRESET)))
	assert.False(t, IsBrokenPipe(nil))
	assert.False(t, IsBrokenPipe(io.EOF))
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	doc := sampleDoc()
	require.NoError(t, WriteSQLite(path, doc))

	second := sampleDoc()
	second.Summary.RunID = "run-2"
	require.NoError(t, WriteSQLite(path, second))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	assert.Equal(t, 2, runs)

	var mapped int64
	require.NoError(t, db.QueryRow(
		`SELECT value FROM counters WHERE run_id = ? AND consumer = 'counts' AND key = 'mapped'`, "run-1",
	).Scan(&mapped))
	assert.EqualValues(t, 8, mapped)

	var cells int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM table_rows WHERE run_id = 'run-2'`).Scan(&cells))
	assert.Equal(t, 4, cells)

	var mean float64
	require.NoError(t, db.QueryRow(`SELECT value FROM report_values WHERE run_id = 'run-1'`).Scan(&mean))
	assert.InDelta(t, 1.5, mean, 1e-9)
}

func TestWriteSQLite_DuplicateRunRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	require.NoError(t, WriteSQLite(path, sampleDoc()))
	assert.Error(t, WriteSQLite(path, sampleDoc()))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM counters`).Scan(&n))
	assert.Equal(t, 2, n)
}
