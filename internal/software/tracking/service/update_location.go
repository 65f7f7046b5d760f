package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/general/contracts"
	"shuttle-track/internal/ports"
)

// UpdateLocation accepts a driver fix: it refreshes the live session,
// mirrors the position onto the booking row, archives the fix, broadcasts it
// to tracking pages, and fires the one-time "driver is close" SMS when the
// ETA crosses the threshold.
func (service *trackingService) UpdateLocation(ctx context.Context, in ports.UpdateLocationInput) (ports.UpdateLocationResult, error) {
	corrID := generateCorrelationID()

	fix := geo.Fix{
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		AccuracyMeters: in.AccuracyMeters,
		SpeedKMH:       in.SpeedKMH,
		HeadingDegrees: in.HeadingDegrees,
		RecordedAt:     time.Now().UTC(),
	}
	if err := fix.Validate(); err != nil {
		return ports.UpdateLocationResult{}, err
	}

	session, err := service.sessions.GetByBooking(ctx, in.BookingID)
	if err != nil {
		return ports.UpdateLocationResult{}, err
	}
	if session.DriverID != in.DriverID {
		return ports.UpdateLocationResult{}, errors.New("driver_id does not match tracking session")
	}

	point := geo.Point{Lat: fix.Latitude, Lng: fix.Longitude}

	// ETA from the driver's position to the pickup address; an estimator
	// outage degrades to "no ETA", it never blocks the position update
	var eta *int
	origin := fmt.Sprintf("%f,%f", fix.Latitude, fix.Longitude)
	if _, minutes, err := service.estimator.DriveEstimate(ctx, origin, session.PickupAddress); err == nil {
		eta = &minutes
	} else {
		service.logger.Error(ctx, "eta_estimate_failed", "Failed to estimate ETA, continuing without one", err, map[string]any{
			"booking_id": in.BookingID,
			"request_id": corrID,
		})
	}

	now := fix.RecordedAt
	session.LastLocation = &point
	session.LocationUpdatedAt = &now
	session.ETAMinutes = eta
	if err := service.sessions.Put(ctx, *session); err != nil {
		return ports.UpdateLocationResult{}, err
	}

	err = service.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := service.bookings.SaveDriverPosition(ctx, in.BookingID, point, eta); err != nil {
			return err
		}
		return service.locHistory.Archive(ctx, ports.LocationRecord{
			BookingID: in.BookingID,
			DriverID:  in.DriverID,
			Fix:       fix,
		})
	})
	if err != nil {
		service.logger.Error(ctx, "location_update_failed", "Failed to persist driver location", err, map[string]any{
			"booking_id": in.BookingID,
			"driver_id":  in.DriverID,
			"request_id": corrID,
		})
		return ports.UpdateLocationResult{}, err
	}

	service.broadcastLocation(ctx, session.BookingID, session.BookingRef, in.DriverID, point, eta, corrID)

	smsSent := false
	if eta != nil && *eta <= service.smsThresholdMinutes {
		smsSent = service.maybeSendArrivalSMS(ctx, session, *eta, corrID)
	}

	service.logger.Info(ctx, "driver_location_updated", "Driver location updated", map[string]any{
		"booking_id":  in.BookingID,
		"driver_id":   in.DriverID,
		"lat":         fix.Latitude,
		"lng":         fix.Longitude,
		"eta_minutes": eta,
		"sms_sent":    smsSent,
		"request_id":  corrID,
	})

	return ports.UpdateLocationResult{
		Status:     "updated",
		ETAMinutes: eta,
		SMSSent:    smsSent,
	}, nil
}

// broadcastLocation publishes the accepted fix to the fanout exchange.
// Publish failures are logged, not returned; the feed is best-effort.
func (service *trackingService) broadcastLocation(ctx context.Context, bookingID, bookingRef, driverID string, p geo.Point, eta *int, corrID string) {
	msg := contracts.LocationUpdateMessage{
		BookingID:  bookingID,
		BookingRef: bookingRef,
		DriverID:   driverID,
		Location:   contracts.GeoPoint{Lat: p.Lat, Lng: p.Lng},
		ETAMinutes: eta,
		Timestamp:  time.Now().UTC(),
		Envelope: contracts.Envelope{
			Producer:      "tracking-service",
			CorrelationID: corrID,
			SentAt:        time.Now().UTC(),
		},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := service.pub.Publish(contracts.ExchangeLocationFanout, "", body); err != nil {
		service.logger.Error(ctx, "location_broadcast_failed", "Failed to broadcast location update", err, map[string]any{
			"booking_id": bookingID,
			"request_id": corrID,
		})
	}
}

// maybeSendArrivalSMS enqueues the "driver is close" text at most once per
// session. The session store owns the guard; losing the race means another
// update already queued it.
func (service *trackingService) maybeSendArrivalSMS(ctx context.Context, session *booking.TrackingSession, eta int, corrID string) bool {
	first, err := service.sessions.MarkSMSSent(ctx, session.TrackingID)
	if err != nil {
		service.logger.Error(ctx, "sms_guard_failed", "Failed to check SMS guard", err, map[string]any{
			"tracking_id": session.TrackingID,
			"request_id":  corrID,
		})
		return false
	}
	if !first {
		return false
	}

	job := contracts.SMSJobMessage{
		To: session.CustomerPhone,
		Body: fmt.Sprintf("Hibiscus Shuttles: your driver %s is about %d minutes away. Follow them live: %s",
			session.DriverName, eta, service.trackingURL(session.BookingRef)),
		BookingRef: session.BookingRef,
		TrackingID: session.TrackingID,
		Envelope: contracts.Envelope{
			Producer:      "tracking-service",
			CorrelationID: corrID,
			SentAt:        time.Now().UTC(),
		},
	}
	body, err := json.Marshal(job)
	if err != nil {
		return false
	}
	if err := service.pub.Publish(contracts.ExchangeNotifyTopic, contracts.RouteNotifySMSPrefix+session.BookingRef, body); err != nil {
		service.logger.Error(ctx, "sms_enqueue_failed", "Failed to enqueue arrival SMS", err, map[string]any{
			"booking_ref": session.BookingRef,
			"request_id":  corrID,
		})
		return false
	}

	service.logger.Info(ctx, "arrival_sms_enqueued", "Arrival SMS enqueued", map[string]any{
		"booking_ref": session.BookingRef,
		"eta_minutes": eta,
		"request_id":  corrID,
	})
	return true
}
