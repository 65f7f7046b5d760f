package customer

import (
	"context"
	"sync"

	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// Canvas is the drawing surface the renderer controls. Init may be slow
// (loading tiles, SDK handshake); everything else is cheap and synchronous.
// cmd/customer_app ships a terminal implementation.
type Canvas interface {
	Init(ctx context.Context) error
	PlacePickupMarker(p geo.Point)
	PlaceDriverMarker(p geo.Point)
	MoveDriverMarker(p geo.Point)
	FitBounds(a, b geo.Point)
	PanTo(p geo.Point)
}

// GeocodeAPI resolves the pickup address to a point for its marker.
type GeocodeAPI interface {
	Geocode(ctx context.Context, address string) (geo.Point, error)
}

type mapState int

const (
	mapUninitialized mapState = iota
	mapLoading
	mapReady
)

// MapRenderer owns the canvas lifecycle. The canvas is built lazily on the
// first snapshot that carries a location; updates arriving while it loads are
// queued and drained in order once it is ready, so no location is rendered
// against a half-built map and none is silently dropped.
type MapRenderer struct {
	logger  *logger.Logger
	canvas  Canvas
	geocode GeocodeAPI

	mu      sync.Mutex
	state   mapState
	pending []func(context.Context)

	pickup       *geo.Point
	pickupTried  bool
	driverPlaced bool
}

// NewMapRenderer constructs a renderer over the given canvas.
func NewMapRenderer(logger *logger.Logger, canvas Canvas, geocode GeocodeAPI) *MapRenderer {
	return &MapRenderer{logger: logger, canvas: canvas, geocode: geocode}
}

// Apply feeds one snapshot to the renderer. Snapshots without a location
// (not yet started, driver offline) never trigger canvas construction.
func (r *MapRenderer) Apply(ctx context.Context, snap ports.TrackingSnapshot) {
	if snap.Location == nil {
		return
	}
	loc := *snap.Location
	pickupAddr := snap.PickupAddress
	op := func(opCtx context.Context) { r.render(opCtx, loc, pickupAddr) }

	r.mu.Lock()
	switch r.state {
	case mapUninitialized:
		r.state = mapLoading
		r.pending = append(r.pending, op)
		r.mu.Unlock()
		go r.initCanvas(ctx)
	case mapLoading:
		r.pending = append(r.pending, op)
		r.mu.Unlock()
	case mapReady:
		r.mu.Unlock()
		op(ctx)
	}
}

// initCanvas runs the slow canvas construction off the update path. On
// failure the state rolls back to uninitialized so a later snapshot retries;
// queued operations are kept for that retry.
func (r *MapRenderer) initCanvas(ctx context.Context) {
	if err := r.canvas.Init(ctx); err != nil {
		r.logger.Error(ctx, "map_init_failed", "Canvas initialization failed", err, nil)
		r.mu.Lock()
		r.state = mapUninitialized
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.state = mapReady
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, op := range pending {
		op(ctx)
	}
}

// render draws one location. First call places the driver marker and fits
// both markers into view; every later call moves the existing marker and
// pans, so the marker identity (and any canvas animation tied to it) is
// preserved.
func (r *MapRenderer) render(ctx context.Context, loc geo.Point, pickupAddr string) {
	r.ensurePickup(ctx, pickupAddr)

	r.mu.Lock()
	first := !r.driverPlaced
	r.driverPlaced = true
	pickup := r.pickup
	r.mu.Unlock()

	if first {
		r.canvas.PlaceDriverMarker(loc)
		if pickup != nil {
			r.canvas.FitBounds(loc, *pickup)
		} else {
			r.canvas.PanTo(loc)
		}
		return
	}
	r.canvas.MoveDriverMarker(loc)
	r.canvas.PanTo(loc)
}

// ensurePickup geocodes the pickup address exactly once per renderer.
func (r *MapRenderer) ensurePickup(ctx context.Context, addr string) {
	r.mu.Lock()
	if r.pickupTried || addr == "" {
		r.mu.Unlock()
		return
	}
	r.pickupTried = true
	r.mu.Unlock()

	pt, err := r.geocode.Geocode(ctx, addr)
	if err != nil {
		// map still works without the pickup marker
		r.logger.Error(ctx, "pickup_geocode_failed", "Could not geocode pickup address", err, map[string]any{
			"address": addr,
		})
		return
	}

	r.mu.Lock()
	r.pickup = &pt
	r.mu.Unlock()
	r.canvas.PlacePickupMarker(pt)
}
