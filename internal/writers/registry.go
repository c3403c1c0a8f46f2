// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"sampass/pkg/api"
)

// WriteFunc renders one run's document to w.
type WriteFunc func(w io.Writer, doc api.DocumentV1) error

// Report writers (format → handler). Register in init() blocks from the
// format files.
var reportWriters = map[string]WriteFunc{}

// Register adds a writer (idempotent last-wins).
func Register(format string, fn WriteFunc) { reportWriters[format] = fn }

// Formats lists the stream formats, sorted.
func Formats() []string {
	out := make([]string, 0, len(reportWriters))
	for f := range reportWriters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Known reports whether format has a registered stream writer.
func Known(format string) bool {
	_, ok := reportWriters[format]
	return ok
}

// Write dispatches to the writer registered for format. A broken pipe is
// not an error.
func Write(format string, w io.Writer, doc api.DocumentV1) error {
	fn, ok := reportWriters[format]
	if !ok {
		return fmt.Errorf("unknown report format %q (no writer registered)", format)
	}
	if err := fn(w, doc); err != nil && !IsBrokenPipe(err) {
		return err
	}
	return nil
}
