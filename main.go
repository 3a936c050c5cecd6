package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pdfmerge/cli"

	"github.com/carlmjohnson/exitcode"
)

func main() {
	exitcode.Exit(run(os.Args[1:]))
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, args, os.Stdout, os.Stderr)
}
