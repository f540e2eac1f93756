// Package main is the entry point for the covidmap CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"covidmap/cmd/covidmap/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.NewRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
