package contracts

import "time"

// LocationUpdateMessage is broadcast by the tracking service on every accepted
// driver location update.
// Exchange: ExchangeLocationFanout (fanout, no routing key).
type LocationUpdateMessage struct {
	BookingID  string    `json:"booking_id"`
	BookingRef string    `json:"booking_ref,omitempty"`
	DriverID   string    `json:"driver_id"`
	Location   GeoPoint  `json:"location"`
	ETAMinutes *int      `json:"eta_minutes,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Envelope
}
