package booking

import (
	"errors"
	"strings"
	"time"

	"shuttle-track/internal/domain/geo"
)

// Booking is the slice of the `bookings` table the tracking flow needs:
// identity, contact details, trip addresses, and the live-tracking fields
// written by the driver-side endpoints.
type Booking struct {
	ID         string
	BookingRef string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Customer and trip
	CustomerName   string
	CustomerPhone  string
	PickupAddress  string
	DropoffAddress string
	PickupDate     string // YYYY-MM-DD as entered on the form
	PickupTime     string // HH:MM
	Passengers     int
	TotalPrice     *float64

	// Tracking
	TrackingID       *string
	TrackingStatus   TrackingStatus
	AssignedDriverID *string
	DriverLocation   *geo.Point
	DriverETAMinutes *int
}

var (
	ErrRefRequired             = errors.New("booking ref is required")
	ErrInvalidStatusTransition = errors.New("invalid tracking status transition")
)

// AttachTracking records a started tracking session and moves the booking to
// DRIVER_ON_WAY. Restarting an active session just refreshes the tracking id.
func (b *Booking) AttachTracking(trackingID, driverID string) error {
	if strings.TrimSpace(trackingID) == "" {
		return errors.New("tracking id is required")
	}
	if !b.TrackingStatus.CanTransitionTo(TrackingDriverOnWay) {
		return ErrInvalidStatusTransition
	}
	tid := strings.TrimSpace(trackingID)
	did := strings.TrimSpace(driverID)
	b.TrackingID = &tid
	b.AssignedDriverID = &did
	b.TrackingStatus = TrackingDriverOnWay
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordDriverPosition overwrites the last known driver location and ETA.
// Once the session is ARRIVED the update is ignored (monotonic status).
func (b *Booking) RecordDriverPosition(p geo.Point, etaMinutes *int) {
	if b.TrackingStatus.Terminal() {
		return
	}
	b.DriverLocation = &p
	b.DriverETAMinutes = etaMinutes
	b.UpdatedAt = time.Now().UTC()
}

// MarkArrived moves the tracking status to its terminal state. Calling it on
// an already-arrived booking is a no-op.
func (b *Booking) MarkArrived() error {
	if b.TrackingStatus == TrackingArrived {
		return nil
	}
	if !b.TrackingStatus.CanTransitionTo(TrackingArrived) {
		return ErrInvalidStatusTransition
	}
	b.TrackingStatus = TrackingArrived
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Driver is the denormalized driver display info shown on the customer
// tracking page.
type Driver struct {
	ID      string
	Name    string
	Phone   string
	Email   string
	Vehicle string
}
