// internal/app/app.go
package app

import (
	"context"
	"io"

	"sampass/internal/appcore"
	"sampass/internal/cli"
)

// RunContext runs the sampass command line and returns the exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	return cli.Execute(ctx, argv, stdout, stderr, appcore.Run)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
