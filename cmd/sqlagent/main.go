package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ranjithr99/SQL-AGENT/internal/cli/sqlagent"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := sqlagent.Run(ctx, os.Args[1:], sqlagent.Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	os.Exit(code)
}
