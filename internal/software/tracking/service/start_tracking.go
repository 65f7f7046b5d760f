package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/ports"
)

// StartTracking opens a live tracking session for a booking: the booking row
// is moved to driver_on_way and a session with denormalized display info is
// written to the store. Restarting an active session issues a fresh tracking
// id; a booking that already arrived cannot be restarted.
func (service *trackingService) StartTracking(ctx context.Context, in ports.StartTrackingInput) (ports.StartTrackingResult, error) {
	if strings.TrimSpace(in.BookingID) == "" {
		return ports.StartTrackingResult{}, errors.New("booking_id is required")
	}
	if strings.TrimSpace(in.DriverID) == "" {
		return ports.StartTrackingResult{}, errors.New("driver_id is required")
	}

	trackingID := newTrackingID()

	var bk *booking.Booking
	var drv *booking.Driver

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bk, err = service.bookings.GetByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		drv, err = service.drivers.GetByID(ctx, in.DriverID)
		if err != nil {
			return err
		}
		return service.bookings.AttachTracking(ctx, bk.ID, trackingID, drv.ID)
	})
	if err != nil {
		service.logger.Error(ctx, "tracking_start_failed", "Failed to start tracking", err, map[string]any{
			"booking_id": in.BookingID,
			"driver_id":  in.DriverID,
		})
		return ports.StartTrackingResult{}, err
	}

	// a restart replaces the previous session; drop its keys first so the old
	// tracking id cannot serve stale reads
	if prev, err := service.sessions.GetByBooking(ctx, bk.ID); err == nil && prev.TrackingID != trackingID {
		_ = service.sessions.Delete(ctx, prev.TrackingID, bk.ID)
	}

	session := booking.TrackingSession{
		TrackingID:    trackingID,
		BookingID:     bk.ID,
		BookingRef:    bk.BookingRef,
		DriverID:      drv.ID,
		StartedAt:     time.Now().UTC(),
		DriverName:    drv.Name,
		DriverPhone:   drv.Phone,
		Vehicle:       drv.Vehicle,
		CustomerName:  bk.CustomerName,
		CustomerPhone: bk.CustomerPhone,
		PickupAddress: bk.PickupAddress,
	}
	if err := service.sessions.Put(ctx, session); err != nil {
		service.logger.Error(ctx, "tracking_session_store_failed", "Failed to store tracking session", err, map[string]any{
			"booking_id":  bk.ID,
			"tracking_id": trackingID,
		})
		return ports.StartTrackingResult{}, err
	}

	service.logger.Info(ctx, "tracking_started", "Tracking session started", map[string]any{
		"booking_id":  bk.ID,
		"booking_ref": bk.BookingRef,
		"driver_id":   drv.ID,
		"tracking_id": trackingID,
	})

	return ports.StartTrackingResult{
		TrackingID:  trackingID,
		TrackingURL: service.trackingURL(bk.BookingRef),
		Message:     "Tracking started",
	}, nil
}
