package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gear6io/airbus/cli"
	"github.com/gear6io/airbus/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.ExecuteWithContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.FormatError(err))
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
