// Package appshell runs a command line entry point as the process: signals
// cancel its context and its return value becomes the exit code.
package appshell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitInterrupted is the exit code after SIGINT or SIGTERM.
const ExitInterrupted = 130

// Runner is a testable main, e.g. app.RunContext.
type Runner func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Main runs run with the process arguments and exits with its code.
func Main(run Runner) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	code := Serve(context.Background(), sigs, run, os.Args[1:], os.Stdout, os.Stderr, os.Exit)
	signal.Stop(sigs)
	os.Exit(code)
}

// Serve runs run until it returns. The first value on sigs cancels the
// context handed to run, which then waits for its running batches; a second
// one calls exit(ExitInterrupted) without waiting.
func Serve(parent context.Context, sigs <-chan os.Signal, run Runner, argv []string, stdout, stderr io.Writer, exit func(int)) int {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sigs:
		case <-done:
			return
		}
		_, _ = fmt.Fprintln(stderr, "interrupted; waiting for running batches (interrupt again to quit now)")
		cancel()
		select {
		case <-sigs:
			exit(ExitInterrupted)
		case <-done:
		}
	}()

	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = ExitInterrupted
	}
	return code
}
