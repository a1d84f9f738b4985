package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"genassign/internal/cli"
)

// main is a thin boundary: canonicalize the invocation, execute, map the
// outcome to an exit code. An interrupt cancels the batch between records.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inv, err := cli.ParseInvocation(os.Args[1:], os.Stdout)
	if err != nil {
		var invErr *cli.InvocationError
		if errors.As(err, &invErr) {
			if invErr.Message != "" {
				fmt.Fprintln(os.Stderr, invErr.Message)
			}
			os.Exit(invErr.ExitCode)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitInternalError)
	}

	result, execErr := cli.Execute(ctx, inv)
	if execErr != nil {
		fmt.Fprintln(os.Stderr, execErr)
	}
	cli.WriteSummary(os.Stderr, result.Batch)
	os.Exit(result.ExitCode)
}
