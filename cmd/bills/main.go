package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"bills/internal/cli"
	applog "bills/internal/log"
	"bills/internal/services"
	"bills/internal/store"
	"bills/internal/views"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if *showVersion {
		fmt.Printf("bills %s (built %s)\n", Version, BuildDate)
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage(os.Stderr)
		return 1
	}
	command, rest := args[0], args[1:]

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open local store: %v\n", err)
		return 1
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()

	a := &app{
		bills:   services.NewBillService(store.New(be.Storage), be.Blobs, nil, nil),
		grouper: views.NewGrouper(cfg.CollationLocale),
		out:     os.Stdout,
		confirm: cli.ConfirmTwice,
		now:     time.Now,
	}

	adapter, err := cli.NewDriveAdapter(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Google Drive unavailable", applog.FieldError, err)
	} else if adapter != nil {
		a.drive = services.NewDriveService(a.bills, adapter)
	}

	if err := a.dispatch(ctx, command, rest); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUnknownCommand) {
			printUsage(os.Stderr)
		}
		return 1
	}
	return 0
}
