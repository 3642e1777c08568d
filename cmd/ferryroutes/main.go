// cmd/ferryroutes/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/ferryroutes/internal/cli"
)

func main() {
	// SIGINT/SIGTERM cancel the run context; an aborted run writes no output
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
