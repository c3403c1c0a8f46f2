// Package cli builds the sampass command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sampass/internal/config"
	"sampass/internal/version"
	"sampass/internal/visitors"
)

// RunFunc executes one configured pass and returns the process exit code.
type RunFunc func(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int

// ExitUsage is returned for flag, argument and configuration errors.
const ExitUsage = 2

const runExamples = `  # counts, MAPQ histogram and per-reference counts as a table
  sampass run -I sample.sam.gz

  # mismatch rate against the reference, first million records, as JSON
  sampass run -I sample.sam -R ref.fa -c mismatch --stop-after 1000000 -f json

  # append the run to a SQLite database
  samtools view -h sample.bam | sampass run -I - -f sqlite -O runs.db`

// Execute parses argv and runs the selected command.
func Execute(ctx context.Context, argv []string, stdout, stderr io.Writer, run RunFunc) int {
	code := 0
	root := NewRootCommand(func(ctx context.Context, cfg *config.Config, o, e io.Writer) int {
		code = run(ctx, cfg, o, e)
		return code
	})
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		var ue *UsageError
		if errors.As(err, &ue) && ue.Hint != "" {
			_, _ = fmt.Fprintln(stderr, ue.Hint)
		}
		return ExitUsage
	}
	return code
}

// UsageError marks errors caused by the command line or configuration.
type UsageError struct {
	Err  error
	Hint string
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// NewRootCommand returns the sampass root command with its subcommands.
func NewRootCommand(run RunFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "sampass",
		Short: "Single-pass batch dispatch over coordinate-sorted alignments",
		Long: `sampass reads a coordinate-sorted SAM file once, pairs each record with its
reference sequence and hands the records, in batches, to a set of consumers
running in parallel. Each consumer writes a report at the end of the pass.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(version.String() + "\n")
	root.SetFlagErrorFunc(flagError)

	root.AddCommand(newRunCommand(run), newConsumersCommand(), newVersionCommand())
	return root
}

func newRunCommand(run RunFunc) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:     "run [flags] [input]",
		Short:   "Run one pass over an alignment file",
		Example: runExamples,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return &UsageError{Err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			if len(args) == 1 {
				if fs.Changed("input") {
					return &UsageError{Err: errors.New("give the input either with -I/--input or as an argument, not both")}
				}
				if err := fs.Set("input", args[0]); err != nil {
					return &UsageError{Err: err}
				}
			}
			cfg, err := config.Load(config.WithFlags(fs), config.WithConfigFile(configFile))
			if err != nil {
				return &UsageError{Err: err, Hint: "Run 'sampass run --help' for usage."}
			}
			run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}
	AddRunFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file (default ./sampass.yaml when present)")
	cmd.SetFlagErrorFunc(flagError)
	return cmd
}

func newConsumersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consumers",
		Short: "List the available consumers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(visitors.Names(), "\n"))
			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

func flagError(cmd *cobra.Command, err error) error {
	return &UsageError{Err: err, Hint: fmt.Sprintf("Run '%s --help' for usage.", cmd.CommandPath())}
}
