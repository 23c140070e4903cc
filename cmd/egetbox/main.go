package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
