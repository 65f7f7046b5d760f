package ports

import (
	"context"
	"errors"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/domain/pricing"
)

// ErrNotFound is returned by repositories and stores when the requested row
// or session does not exist. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// UnitOfWork runs fn within a database transaction; repositories called
// inside fn share that transaction via the context.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BookingRepository reads and updates the tracking slice of the bookings table.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
	GetByRef(ctx context.Context, ref string) (*booking.Booking, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*booking.Booking, error)

	// AttachTracking persists the started session pointers and the
	// driver_on_way status.
	AttachTracking(ctx context.Context, bookingID, trackingID, driverID string) error

	// SaveDriverPosition mirrors the live location/ETA onto the booking row
	// so the snapshot survives a tracking-service restart.
	SaveDriverPosition(ctx context.Context, bookingID string, p geo.Point, etaMinutes *int) error

	SetTrackingStatus(ctx context.Context, bookingID string, status booking.TrackingStatus) error
}

// DriverRepository reads driver display info.
type DriverRepository interface {
	GetByID(ctx context.Context, id string) (*booking.Driver, error)
}

// PromoRepository reads promo codes for validation.
type PromoRepository interface {
	// GetByCode returns the code regardless of active flag; rule evaluation
	// is domain logic.
	GetByCode(ctx context.Context, code string) (*pricing.PromoCode, error)
	IncrementUses(ctx context.Context, id string) error
}

// LocationRecord is one archived driver fix tied to its booking.
type LocationRecord struct {
	BookingID string
	DriverID  string
	Fix       geo.Fix
}

// LocationHistoryRepository appends driver fixes for later auditing.
type LocationHistoryRepository interface {
	Archive(ctx context.Context, rec LocationRecord) error
}

// SessionStore holds live tracking sessions (Redis in production).
type SessionStore interface {
	Put(ctx context.Context, s booking.TrackingSession) error
	Get(ctx context.Context, trackingID string) (*booking.TrackingSession, error)
	GetByBooking(ctx context.Context, bookingID string) (*booking.TrackingSession, error)

	// MarkSMSSent atomically flips the session's sms_sent flag and reports
	// whether this call was the one that flipped it. At-most-once SMS
	// dispatch hangs off this return value.
	MarkSMSSent(ctx context.Context, trackingID string) (first bool, err error)

	Delete(ctx context.Context, trackingID, bookingID string) error
}

// MessagePublisher abstracts the RabbitMQ publisher for services and tests.
type MessagePublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// SMSSender delivers one text message (Twilio-backed in production).
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}
