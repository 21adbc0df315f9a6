package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/coral-mesh/ifprobe/internal/cli"
	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/constants"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		helpers.Failure(os.Stderr, "%v", err)
		os.Exit(constants.ExitCodeFailure)
	}
}
