// Command dustebin runs the paste sharing API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx)
	if err != nil {
		slog.Error("failed to start dustebin", logger.Error(err))
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("dustebin stopped with error", logger.Error(err))
		os.Exit(1)
	}
}
