package cli

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampass/internal/config"
)

type captured struct {
	cfg   *config.Config
	calls int
}

func execute(t *testing.T, code int, argv ...string) (int, *captured, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := &captured{}
	got := Execute(context.Background(), argv, &out, &errOut,
		func(_ context.Context, cfg *config.Config, _, _ io.Writer) int {
			c.cfg = cfg
			c.calls++
			return code
		})
	return got, c, out.String(), errOut.String()
}

func TestRun_FlagsReachConfig(t *testing.T) {
	code, c, _, stderr := execute(t, 0, "run",
		"-I", "in.sam", "-R", "ref.fa", "-c", "counts,mismatch",
		"--stop-after", "1500", "--batch-size", "250", "--join-timeout", "10s",
		"--max-in-flight", "1", "--assume-sorted=false", "-f", "json", "-q")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, 1, c.calls)

	cfg := c.cfg
	assert.Equal(t, "in.sam", cfg.Input)
	assert.Equal(t, "ref.fa", cfg.Reference)
	assert.Equal(t, []string{"counts", "mismatch"}, cfg.Consumers)
	assert.EqualValues(t, 1500, cfg.StopAfter)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.JoinTimeout)
	assert.Equal(t, 1, cfg.MaxInFlight)
	assert.False(t, cfg.AssumeSorted)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestRun_PositionalInput(t *testing.T) {
	code, c, _, _ := execute(t, 0, "run", "in.sam")
	require.Equal(t, 0, code)
	assert.Equal(t, "in.sam", c.cfg.Input)
	assert.Equal(t, config.DefaultConsumers, c.cfg.Consumers)
}

func TestRun_InputTwice(t *testing.T) {
	code, c, _, stderr := execute(t, 0, "run", "-I", "a.sam", "b.sam")
	assert.Equal(t, ExitUsage, code)
	assert.Zero(t, c.calls)
	assert.Contains(t, stderr, "not both")
}

func TestRun_ExitCodePropagates(t *testing.T) {
	code, _, _, _ := execute(t, 3, "run", "-I", "in.sam")
	assert.Equal(t, 3, code)
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"unknown flag", []string{"run", "--nope"}, "unknown flag"},
		{"missing input", []string{"run"}, "input is required"},
		{"bad format", []string{"run", "-I", "x.sam", "-f", "xml"}, "unknown format"},
		{"sqlite to stdout", []string{"run", "-I", "x.sam", "-f", "sqlite"}, "file path"},
		{"bad duration", []string{"run", "-I", "x.sam", "--join-timeout", "soon"}, "join-timeout"},
		{"unknown command", []string{"frobnicate"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, c, _, stderr := execute(t, 0, tt.argv...)
			assert.Equal(t, ExitUsage, code)
			assert.Zero(t, c.calls)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	code, _, stdout, _ := execute(t, 0, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "sampass ")

	code, _, stdout, _ = execute(t, 0, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "sampass ")
}

func TestConsumers(t *testing.T) {
	code, _, stdout, _ := execute(t, 0, "consumers")
	assert.Equal(t, 0, code)
	for _, n := range []string{"counts", "mapq", "mismatch", "refcounts"} {
		assert.Contains(t, stdout, n)
	}
}

func TestHelp(t *testing.T) {
	code, _, stdout, _ := execute(t, 0, "run", "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "--stop-after")
	assert.Contains(t, stdout, "sampass run -I sample.sam.gz")
}
