package customerapp

import (
	"context"
	"fmt"
	"os"
	"time"

	"shuttle-track/internal/client/api"
	"shuttle-track/internal/client/customer"
	"shuttle-track/internal/general/config"
	"shuttle-track/internal/general/logger"
)

// Run renders the live tracking page for one booking ref in the terminal
// until the driver arrives or ctx is cancelled.
func Run(ctx context.Context, bookingRef, apiBase string) error {
	logger := logger.New("customer-app")
	ctx = logger.WithRequestID(ctx, "customer-app-001")
	ctx = logger.WithBookingRef(ctx, bookingRef)

	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Debug(ctx, "config_skipped", "No usable config file, using flags/env/defaults", map[string]any{
			"reason": err.Error(),
		})
		cfg = nil
	}

	client := api.NewClient(api.ResolveBaseURL(apiBase, os.Getenv, cfg), logger)

	pollInterval := 10 * time.Second
	if cfg != nil {
		pollInterval = time.Duration(cfg.Tracking.PollIntervalSeconds) * time.Second
	}

	renderer := customer.NewMapRenderer(logger, newTerminalCanvas(os.Stdout), client)
	poller := customer.NewPoller(logger, client, bookingRef, pollInterval)

	pageCtx, unmount := context.WithCancel(ctx)
	defer unmount()

	poller.Run(pageCtx, func(view customer.View) {
		switch {
		case view.NotStarted:
			fmt.Println("Tracking has not started yet. Hang tight!")
		case view.Err != nil:
			fmt.Println("Connection hiccup, retrying...")
		default:
			snap := *view.Snapshot
			fmt.Println(customer.StatusLine(snap.TrackingStatus, snap.ETAMinutes))
			renderer.Apply(pageCtx, snap)
			if snap.TrackingStatus == "arrived" {
				fmt.Println("Enjoy your ride!")
				unmount()
			}
		}
	})
	return nil
}
