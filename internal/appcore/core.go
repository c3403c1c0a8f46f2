// internal/appcore/core.go
package appcore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"sampass/internal/config"
	"sampass/internal/logging"
	"sampass/internal/pipeline"
	"sampass/internal/progress"
	"sampass/internal/visitors"
	"sampass/internal/writers"
	"sampass/pkg/api"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitRuntime  = 3
	ExitCanceled = 130
)

// Run executes one configured pass, writes the reports and returns the exit code.
func Run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	logOut := stderr
	if strings.EqualFold(cfg.Log.Output, "stdout") {
		logOut = stdout
	}
	log := logging.NewWriter(cfg.Log, logOut)

	consumers, err := visitors.New(cfg.Consumers)
	if err != nil {
		log.Error().Err(err).Msg("invalid consumer list")
		return ExitUsage
	}
	if need := visitors.NeedReference(consumers); len(need) > 0 && cfg.Reference == "" {
		log.Error().Strs("consumers", need).Msg("these consumers need a reference (-R/--reference)")
		return ExitUsage
	}

	reg := prometheus.NewRegistry()
	metrics, err := pipeline.NewMetrics(reg)
	if err != nil {
		log.Error().Err(err).Msg("register metrics")
		return ExitRuntime
	}

	sum, runErr := pipeline.Run(ctx, pipeline.Config{
		SourcePath:    cfg.Input,
		ReferencePath: cfg.Reference,
		AssumeSorted:  cfg.AssumeSorted,
		RecordCap:     cfg.StopAfter,
		BatchSize:     cfg.BatchSize,
		JoinTimeout:   cfg.JoinTimeout,
		MaxInFlight:   cfg.MaxInFlight,
		Logger:        &log,
		Metrics:       metrics,
		Progress:      progress.New(logging.WithComponent(log, "progress"), cfg.ProgressEvery),
	}, consumers)
	code := exitCode(ctx, runErr)
	if runErr != nil && code != ExitCanceled {
		log.Error().Err(runErr).Msg("pass failed")
	}

	if path := cfg.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			log.Error().Err(err).Str("path", path).Msg("write metrics")
			code = max(code, ExitRuntime)
		}
	}

	if !sum.Finalized {
		return code
	}
	doc := Document(cfg, sum, consumers)
	if err := writeReports(cfg, doc, stdout); err != nil {
		log.Error().Err(err).Str("format", cfg.Format).Msg("write reports")
		code = max(code, ExitRuntime)
	}
	return code
}

// Document assembles the report document of a finished pass.
func Document(cfg *config.Config, sum pipeline.Summary, consumers []pipeline.Consumer) api.DocumentV1 {
	names := make([]string, len(consumers))
	for i, c := range consumers {
		names[i] = pipeline.NameOf(c)
	}
	return api.DocumentV1{
		Summary: api.SummaryV1{
			RunID:     sum.RunID,
			Source:    cfg.Input,
			Reference: cfg.Reference,
			Consumers: names,
			Pulled:    sum.Pulled,
			Accepted:  sum.Accepted,
			Batches:   sum.Batches,
			TailSize:  sum.TailSize,
			Stop:      string(sum.Stop),
			ElapsedMS: sum.Elapsed.Milliseconds(),
		},
		Reports: visitors.Reports(consumers, sum.RunID),
	}
}

func writeReports(cfg *config.Config, doc api.DocumentV1, stdout io.Writer) (err error) {
	if cfg.Format == config.FormatSQLite {
		return writers.WriteSQLite(cfg.Output, doc)
	}

	out := stdout
	if cfg.Output != "" && cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cerr
			}
		}()
		out = f
	}

	bw := bufio.NewWriter(out)
	if err := writers.Write(cfg.Format, bw, doc); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil && !writers.IsBrokenPipe(err) {
		return fmt.Errorf("flush %s output: %w", cfg.Format, err)
	}
	return nil
}

func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return ExitCanceled
	case errors.Is(err, pipeline.ErrPrecondition):
		return ExitUsage
	default:
		return ExitRuntime
	}
}
