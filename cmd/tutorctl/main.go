package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/set-night/tutorme/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		cli.Fatal(err)
	}
}
