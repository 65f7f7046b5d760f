package customer

import (
	"context"
	"errors"
	"time"

	"shuttle-track/internal/client/api"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// SnapshotAPI is the slice of the shared API client the poller needs.
type SnapshotAPI interface {
	Snapshot(ctx context.Context, bookingRef string) (ports.TrackingSnapshot, error)
}

// View is what one poll tick produces. Exactly one of the three shapes holds:
// a fresh snapshot, a not-started marker (the server has no tracking session
// yet), or a retryable error. Each tick replaces the previous view wholesale.
type View struct {
	Snapshot   *ports.TrackingSnapshot
	NotStarted bool
	Err        error
}

// Poller fetches the tracking snapshot for one booking ref on a fixed cadence.
type Poller struct {
	logger   *logger.Logger
	api      SnapshotAPI
	ref      string
	interval time.Duration
}

// NewPoller constructs a Poller. A non-positive interval takes the production
// default of 10s.
func NewPoller(logger *logger.Logger, api SnapshotAPI, bookingRef string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{logger: logger, api: api, ref: bookingRef, interval: interval}
}

// Run polls until ctx is cancelled, invoking onUpdate with each tick's view.
// The first fetch happens immediately, not one interval in. A failed tick
// never stops the loop; the next tick retries. Cancellation suppresses any
// in-flight result so a late response cannot update a torn-down page.
func (p *Poller) Run(ctx context.Context, onUpdate func(View)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx, onUpdate)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, onUpdate)
		}
	}
}

func (p *Poller) tick(ctx context.Context, onUpdate func(View)) {
	snap, err := p.api.Snapshot(ctx, p.ref)

	// guard against delivering a result after unmount
	if ctx.Err() != nil {
		return
	}

	switch {
	case err == nil:
		onUpdate(View{Snapshot: &snap})
	case errors.Is(err, api.ErrNotFound):
		// tracking has not started; a real state, not a failure
		onUpdate(View{NotStarted: true})
	default:
		p.logger.Error(ctx, "poll_failed", "Snapshot poll failed, will retry", err, map[string]any{
			"booking_ref": p.ref,
		})
		onUpdate(View{Err: err})
	}
}
