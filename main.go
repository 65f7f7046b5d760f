package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	customerapp "shuttle-track/cmd/customer_app"
	driverapp "shuttle-track/cmd/driver_app"
	trackingservice "shuttle-track/cmd/tracking_service"
	"shuttle-track/internal/cli"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, appArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {

	case cli.ModeTracking:
		fs := flag.NewFlagSet(cli.ModeTracking, flag.ContinueOnError)
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
		cli.AttachUsage(fs, cli.ModeTracking)

		if err := fs.Parse(appArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := trackingservice.Run(ctx, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeDriver:
		fs := flag.NewFlagSet(cli.ModeDriver, flag.ContinueOnError)
		bookingID := fs.String("booking", "", "Booking ID to track")
		driverID := fs.String("driver", "", "Driver ID (must match the JWT subject)")
		token := fs.String("token", "", "Driver JWT for the tracking endpoints")
		apiBase := fs.String("api-base", "", "Tracking API base URL (overrides env and config)")
		cli.AttachUsage(fs, cli.ModeDriver)

		if err := fs.Parse(appArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *bookingID == "" || *driverID == "" {
			fmt.Fprintln(os.Stderr, "Error: --booking and --driver are required")
			fs.Usage()
			os.Exit(2)
		}
		if err := driverapp.Run(ctx, *bookingID, *driverID, *token, *apiBase); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeCustomer:
		fs := flag.NewFlagSet(cli.ModeCustomer, flag.ContinueOnError)
		ref := fs.String("ref", "", "Booking reference to follow")
		apiBase := fs.String("api-base", "", "Tracking API base URL (overrides env and config)")
		cli.AttachUsage(fs, cli.ModeCustomer)

		if err := fs.Parse(appArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *ref == "" {
			fmt.Fprintln(os.Stderr, "Error: --ref is required")
			fs.Usage()
			os.Exit(2)
		}
		if err := customerapp.Run(ctx, *ref, *apiBase); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}
