package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/general/contracts"
	"shuttle-track/internal/ports"
)

// StopTracking ends a session: the booking moves to its terminal arrived
// status, the live session is removed, and subscribed tracking pages get a
// final update. Stopping an already-arrived booking succeeds (idempotent).
func (service *trackingService) StopTracking(ctx context.Context, bookingID string) (ports.StopTrackingResult, error) {
	if strings.TrimSpace(bookingID) == "" {
		return ports.StopTrackingResult{}, errors.New("booking_id is required")
	}

	var bk *booking.Booking
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bk, err = service.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.TrackingStatus == booking.TrackingArrived {
			return nil
		}
		return service.bookings.SetTrackingStatus(ctx, bookingID, booking.TrackingArrived)
	})
	if err != nil {
		service.logger.Error(ctx, "tracking_stop_failed", "Failed to stop tracking", err, map[string]any{
			"booking_id": bookingID,
		})
		return ports.StopTrackingResult{}, err
	}

	// drop the live session; the persisted row now carries the final state
	if session, err := service.sessions.GetByBooking(ctx, bookingID); err == nil {
		_ = service.sessions.Delete(ctx, session.TrackingID, bookingID)
	}

	service.notifyArrived(ctx, bk)

	service.logger.Info(ctx, "tracking_stopped", "Tracking session stopped", map[string]any{
		"booking_id":  bookingID,
		"booking_ref": bk.BookingRef,
	})

	return ports.StopTrackingResult{
		Message: "Tracking stopped",
		Status:  booking.TrackingArrived.String(),
	}, nil
}

// notifyArrived pushes a terminal update so open tracking pages flip to
// "arrived" without waiting for the next poll.
func (service *trackingService) notifyArrived(ctx context.Context, bk *booking.Booking) {
	if bk.DriverLocation == nil {
		return
	}
	msg := contracts.LocationUpdateMessage{
		BookingID:  bk.ID,
		BookingRef: bk.BookingRef,
		Location:   contracts.GeoPoint{Lat: bk.DriverLocation.Lat, Lng: bk.DriverLocation.Lng},
		Timestamp:  time.Now().UTC(),
		Envelope: contracts.Envelope{
			Producer: "tracking-service",
			SentAt:   time.Now().UTC(),
		},
	}
	if bk.AssignedDriverID != nil {
		msg.DriverID = *bk.AssignedDriverID
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := service.pub.Publish(contracts.ExchangeLocationFanout, "", body); err != nil {
		service.logger.Error(ctx, "arrival_broadcast_failed", "Failed to broadcast arrival", err, map[string]any{
			"booking_id": bk.ID,
		})
	}
}
