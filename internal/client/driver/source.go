package driver

import (
	"context"
	"errors"

	"shuttle-track/internal/domain/geo"
)

var (
	// ErrPermissionDenied means the device refused location access. Terminal:
	// retrying without user action will not help.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrUnavailable means positioning is switched off or not present.
	// Retryable after the user intervenes.
	ErrUnavailable = errors.New("location unavailable")

	// ErrSignalLost marks a transient gap in the fix stream. The watch stays
	// open and recovers on its own.
	ErrSignalLost = errors.New("location signal lost")
)

// Event is one item from a watch stream: either a fix or a non-fatal error.
type Event struct {
	Fix *geo.Fix
	Err error
}

// LocationSource abstracts the device geolocation API so the tracker can run
// against real GPS, a simulator, or a scripted test double.
type LocationSource interface {
	// Current returns a single fix, blocking until one is available or ctx
	// expires. Returns ErrPermissionDenied or ErrUnavailable as appropriate.
	Current(ctx context.Context) (geo.Fix, error)

	// Watch opens a continuous fix stream. The channel closes when ctx is
	// cancelled. Transient problems arrive as Event.Err, never by closing
	// the stream.
	Watch(ctx context.Context) (<-chan Event, error)
}
