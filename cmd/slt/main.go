package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agnosticeng/panicsafe"

	"github.com/roach88/sqllogictest/internal/backend"
	"github.com/roach88/sqllogictest/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var err = panicsafe.Recover(func() error {
		reg, err := backend.Registry()
		if err != nil {
			return err
		}
		return cli.Execute(ctx, reg, os.Args[1:], os.Stdout, os.Stderr)
	})
	stop()

	if err != nil && err.Error() != "" {
		slog.Error(fmt.Sprintf("%v", err))
	}
	os.Exit(cli.GetExitCode(err))
}
