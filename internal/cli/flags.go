// internal/cli/flags.go
package cli

import (
	"github.com/spf13/pflag"

	"sampass/internal/config"
	"sampass/internal/progress"
)

// AddRunFlags registers the run flags. Their names match config.FlagKeys.
func AddRunFlags(fs *pflag.FlagSet) {
	// Input
	fs.StringP("input", "I", "", "SAM file to read (plain, .gz or .lz4); - for stdin [*]")
	fs.StringP("reference", "R", "", "FASTA reference matching the alignment header (.fai used when present)")
	fs.Bool("assume-sorted", config.DefaultAssumeSorted, "treat the input as coordinate sorted whatever its header says")
	fs.Uint64("stop-after", 0, "stop after this many records (0 = whole file)")

	// Dispatch
	fs.Int("batch-size", config.DefaultBatchSize, "records per batch")
	fs.Duration("join-timeout", config.DefaultJoinTimeout, "how long to wait for outstanding batches before finalizing")
	fs.Int("max-in-flight", 0, "max batches processed at once (0 = unbounded, 1 = serial)")
	fs.StringSliceP("consumers", "c", config.DefaultConsumers, "consumers to run, comma separated")

	// Output
	fs.StringP("output", "O", config.DefaultOutput, "report destination; - for stdout")
	fs.StringP("format", "f", config.DefaultFormat, "report format: text | json | jsonl | yaml | sqlite")
	fs.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")

	// Logging
	fs.Uint64("progress-every", progress.DefaultEvery, "log progress every N records")
	fs.String("log-level", "info", "log level: debug | info | warn | error")
	fs.String("log-format", "console", "log format: console | json")
	fs.BoolP("quiet", "q", false, "only log warnings and errors")
}
