package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sibtain012/BrandPulse-2.0/internal/app"
	"github.com/Sibtain012/BrandPulse-2.0/internal/config"
	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close(context.WithoutCancel(ctx))

	switch {
	case args[0] == "sweep":
		err = application.RunSweep(ctx)
	case len(args) == 2:
		var requestID int64
		requestID, err = domain.ParseRequestID(args[1])
		if err == nil {
			err = application.RunOnce(ctx, args[0], requestID)
		}
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("pipeline failed", "error", err)
		application.Close(context.WithoutCancel(ctx))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: brandpulse <keyword> <request_id> | brandpulse sweep")
}
