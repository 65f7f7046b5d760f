package booking

import (
	"time"

	"shuttle-track/internal/domain/geo"
)

// TrackingSession is the live per-trip state the driver device writes and the
// customer page reads. It lives in Redis for the duration of the trip; the
// durable booking row only mirrors the fields worth keeping after arrival.
type TrackingSession struct {
	TrackingID string    `json:"tracking_id"`
	BookingID  string    `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	DriverID   string    `json:"driver_id"`
	StartedAt  time.Time `json:"started_at"`

	// Denormalized display info so the snapshot endpoint needs no joins.
	DriverName    string `json:"driver_name"`
	DriverPhone   string `json:"driver_phone"`
	Vehicle       string `json:"vehicle"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	PickupAddress string `json:"pickup_address"`

	// Live fields, overwritten on every accepted update.
	LastLocation      *geo.Point `json:"last_location,omitempty"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty"`
	ETAMinutes        *int       `json:"eta_minutes,omitempty"`

	// SMSSent guards the "driver is N minutes away" notification: it must
	// fire at most once per session.
	SMSSent bool `json:"sms_sent"`
}
