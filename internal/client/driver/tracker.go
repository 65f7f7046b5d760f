package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// ErrAlreadyStarted is returned by Start while a previous Start is live.
var ErrAlreadyStarted = errors.New("tracker already started")

// TrackingAPI is the slice of the shared API client the tracker needs.
type TrackingAPI interface {
	UploadLocation(ctx context.Context, bookingID string, fix geo.Fix) (ports.UpdateLocationResult, error)
	StopTracking(ctx context.Context, bookingID string) (ports.StopTrackingResult, error)
}

// Options tunes the tracker's cadences. Zero values take the production
// defaults; tests pass millisecond values.
type Options struct {
	InitialUploadDelay time.Duration // first upload after Start, default 1s
	UploadInterval     time.Duration // periodic upload, default 30s
	PermissionTimeout  time.Duration // bound on RequestPermission, default 10s
}

func (o *Options) applyDefaults() {
	if o.InitialUploadDelay <= 0 {
		o.InitialUploadDelay = time.Second
	}
	if o.UploadInterval <= 0 {
		o.UploadInterval = 30 * time.Second
	}
	if o.PermissionTimeout <= 0 {
		o.PermissionTimeout = 10 * time.Second
	}
}

// Tracker drives the upload side of live tracking for one booking: it holds
// at most one watch subscription and one upload ticker, uploads the latest
// fix on a cadence and opportunistically on every change, and tears both
// down on Stop.
type Tracker struct {
	logger    *logger.Logger
	api       TrackingAPI
	source    LocationSource
	bookingID string
	opts      Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	fixMu   sync.Mutex
	lastFix *geo.Fix
}

// NewTracker constructs a Tracker for one booking.
func NewTracker(logger *logger.Logger, api TrackingAPI, source LocationSource, bookingID string, opts Options) *Tracker {
	opts.applyDefaults()
	return &Tracker{
		logger:    logger,
		api:       api,
		source:    source,
		bookingID: bookingID,
		opts:      opts,
	}
}

// RequestPermission asks the source for a single fix within a bounded window.
// A successful fix seeds the tracker so the very first upload has something
// to send. ErrPermissionDenied propagates untouched so the caller can stop
// offering tracking.
func (t *Tracker) RequestPermission(ctx context.Context) (geo.Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, t.opts.PermissionTimeout)
	defer cancel()

	fix, err := t.source.Current(ctx)
	if err != nil {
		return geo.Fix{}, err
	}
	t.setLast(fix)
	return fix, nil
}

// Start opens the watch subscription and the upload loop. A second Start
// while running returns ErrAlreadyStarted without touching the live loop.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	events, err := t.source.Watch(runCtx)
	if err != nil {
		cancel()
		return err
	}

	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(runCtx, events)

	t.logger.Info(runCtx, "tracker_started", "Location upload loop started", map[string]any{
		"booking_id": t.bookingID,
	})
	return nil
}

// Stop tears down the watch and the ticker and waits for the loop to exit.
// Safe to call any number of times, including before Start.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// MarkArrived tells the server tracking is over, then stops the local loop.
// The loop is torn down even when the stop call fails; the error is returned
// so the app can surface it.
func (t *Tracker) MarkArrived(ctx context.Context) error {
	_, err := t.api.StopTracking(ctx, t.bookingID)
	t.Stop()
	return err
}

func (t *Tracker) run(ctx context.Context, events <-chan Event) {
	defer close(t.done)

	initial := time.NewTimer(t.opts.InitialUploadDelay)
	defer initial.Stop()
	ticker := time.NewTicker(t.opts.UploadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-initial.C:
			t.uploadLast(ctx)

		case <-ticker.C:
			// read the fix at fire time, not at schedule time
			t.uploadLast(ctx)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Err != nil {
				t.logger.Debug(ctx, "tracker_signal_event", "Non-fatal watch event", map[string]any{
					"booking_id": t.bookingID,
					"event":      ev.Err.Error(),
				})
				continue
			}
			if ev.Fix != nil {
				t.setLast(*ev.Fix)
				t.upload(ctx, *ev.Fix)
			}
		}
	}
}

// uploadLast sends the most recent fix, skipping silently if none arrived yet.
func (t *Tracker) uploadLast(ctx context.Context) {
	t.fixMu.Lock()
	fix := t.lastFix
	t.fixMu.Unlock()
	if fix == nil {
		return
	}
	t.upload(ctx, *fix)
}

// upload posts one fix. Failures are logged and swallowed so a flaky network
// never kills the loop; the next tick retries with fresher data anyway.
func (t *Tracker) upload(ctx context.Context, fix geo.Fix) {
	if _, err := t.api.UploadLocation(ctx, t.bookingID, fix); err != nil {
		if ctx.Err() != nil {
			return
		}
		t.logger.Error(ctx, "tracker_upload_failed", "Location upload failed", err, map[string]any{
			"booking_id": t.bookingID,
		})
	}
}

func (t *Tracker) setLast(fix geo.Fix) {
	t.fixMu.Lock()
	t.lastFix = &fix
	t.fixMu.Unlock()
}
