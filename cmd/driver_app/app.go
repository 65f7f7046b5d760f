package driverapp

import (
	"context"
	"fmt"
	"os"
	"time"

	"shuttle-track/internal/client/api"
	"shuttle-track/internal/client/driver"
	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/general/config"
	"shuttle-track/internal/general/logger"
)

// Simulated route: Orewa to Auckland Airport.
var (
	routeStart = geo.Point{Lat: -36.5853, Lng: 174.6944}
	routeEnd   = geo.Point{Lat: -37.0082, Lng: 174.7850}
)

const (
	simSteps       = 60
	simFixInterval = 5 * time.Second
)

// Run drives one simulated trip: start tracking, stream fixes until the
// route completes or ctx is cancelled, then mark the booking arrived.
func Run(ctx context.Context, bookingID, driverID, token, apiBase string) error {
	logger := logger.New("driver-app")
	ctx = logger.WithRequestID(ctx, "driver-app-001")

	// config is optional for the client apps; flags and env still work
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Debug(ctx, "config_skipped", "No usable config file, using flags/env/defaults", map[string]any{
			"reason": err.Error(),
		})
		cfg = nil
	}

	client := api.NewClient(api.ResolveBaseURL(apiBase, os.Getenv, cfg), logger)
	client.SetAuthToken(token)

	uploadInterval := 30 * time.Second
	if cfg != nil {
		uploadInterval = time.Duration(cfg.Tracking.UploadIntervalSeconds) * time.Second
	}

	source := driver.NewSimulatedSource(routeStart, routeEnd, simSteps, simFixInterval)
	tracker := driver.NewTracker(logger, client, source, bookingID, driver.Options{
		UploadInterval: uploadInterval,
	})

	// one-shot fix before anything touches the server
	fix, err := tracker.RequestPermission(ctx)
	if err != nil {
		logger.Error(ctx, "permission_failed", "Could not get an initial location fix", err, nil)
		return err
	}
	logger.Info(ctx, "permission_granted", "Initial fix acquired", map[string]any{
		"lat": fix.Latitude, "lng": fix.Longitude,
	})

	started, err := client.StartTracking(ctx, bookingID, driverID)
	if err != nil {
		logger.Error(ctx, "start_tracking_failed", "Server refused to start tracking", err, nil)
		return err
	}
	fmt.Printf("Tracking started: %s\n", started.TrackingURL)

	if err := tracker.Start(ctx); err != nil {
		return err
	}

	tripDuration := time.Duration(simSteps) * simFixInterval
	select {
	case <-ctx.Done():
		// interrupted mid-trip: stop uploading but leave the session live
		tracker.Stop()
		logger.Info(ctx, "driver_app_interrupted", "Upload loop stopped before arrival", nil)
		return nil
	case <-time.After(tripDuration):
	}

	// route complete
	arriveCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := tracker.MarkArrived(arriveCtx); err != nil {
		logger.Error(ctx, "mark_arrived_failed", "Failed to mark the booking arrived", err, nil)
		return err
	}
	fmt.Println("Arrived at pickup.")
	return nil
}
