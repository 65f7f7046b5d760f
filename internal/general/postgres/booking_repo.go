package postgres

import (
	"context"
	"errors"
	"fmt"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/ports"

	"github.com/jackc/pgx/v5"
)

// BookingRepo persists the tracking slice of bookings using pgx and plain SQL.
type BookingRepo struct{}

// NewBookingRepo constructs a new BookingRepo.
func NewBookingRepo() ports.BookingRepository {
	return &BookingRepo{}
}

const bookingColumns = `
	id, booking_ref, created_at, updated_at,
	customer_name, customer_phone, pickup_address, dropoff_address,
	pickup_date, pickup_time, passengers, total_price,
	tracking_id, tracking_status, assigned_driver_id,
	driver_lat, driver_lng, driver_eta_minutes`

// GetByID fetches a booking by primary key (uuid).
func (repo *BookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

// GetByRef fetches a booking by its public booking reference.
func (repo *BookingRepo) GetByRef(ctx context.Context, ref string) (*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_ref = $1`, ref)
	return scanBooking(row)
}

// GetByTrackingID fetches the booking a tracking session is attached to.
func (repo *BookingRepo) GetByTrackingID(ctx context.Context, trackingID string) (*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE tracking_id = $1`, trackingID)
	return scanBooking(row)
}

// AttachTracking persists the started session pointers and moves the row to
// driver_on_way. The row is locked so two concurrent starts cannot race.
func (repo *BookingRepo) AttachTracking(ctx context.Context, bookingID, trackingID, driverID string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var current string
	err = tx.QueryRow(ctx, `
		SELECT tracking_status
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, bookingID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("lock booking: %w", err)
	}

	// arrived is terminal, restarting an active session is allowed
	if booking.TrackingStatus(current) == booking.TrackingArrived {
		return booking.ErrInvalidStatusTransition
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET tracking_id = $1,
		    assigned_driver_id = $2,
		    tracking_status = $3,
		    updated_at = now()
		WHERE id = $4
	`, trackingID, driverID, string(booking.TrackingDriverOnWay), bookingID)
	if err != nil {
		return fmt.Errorf("attach tracking: %w", err)
	}
	return nil
}

// SaveDriverPosition mirrors the live location/ETA onto the booking row.
func (repo *BookingRepo) SaveDriverPosition(ctx context.Context, bookingID string, p geo.Point, etaMinutes *int) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET driver_lat = $1,
		    driver_lng = $2,
		    driver_eta_minutes = $3,
		    updated_at = now()
		WHERE id = $4
		  AND tracking_status <> $5
	`, p.Lat, p.Lng, etaMinutes, bookingID, string(booking.TrackingArrived))
	if err != nil {
		return fmt.Errorf("save driver position: %w", err)
	}
	// zero rows means either missing booking or already arrived; the arrived
	// case is a silent no-op, so distinguish via a cheap existence check
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, bookingID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ports.ErrNotFound
		}
	}
	return nil
}

// SetTrackingStatus updates the tracking status enforcing forward-only moves.
func (repo *BookingRepo) SetTrackingStatus(ctx context.Context, bookingID string, status booking.TrackingStatus) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var current string
	err = tx.QueryRow(ctx, `
		SELECT tracking_status
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, bookingID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("lock booking: %w", err)
	}

	// idempotent success
	if current == string(status) {
		return nil
	}
	if !booking.TrackingStatus(current).CanTransitionTo(status) {
		return booking.ErrInvalidStatusTransition
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET tracking_status = $1,
		    updated_at = now()
		WHERE id = $2
	`, string(status), bookingID)
	if err != nil {
		return fmt.Errorf("set tracking status: %w", err)
	}
	return nil
}

// --- helpers ---

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var out booking.Booking
	var status string
	var driverLat, driverLng *float64

	err := row.Scan(
		&out.ID, &out.BookingRef, &out.CreatedAt, &out.UpdatedAt,
		&out.CustomerName, &out.CustomerPhone, &out.PickupAddress, &out.DropoffAddress,
		&out.PickupDate, &out.PickupTime, &out.Passengers, &out.TotalPrice,
		&out.TrackingID, &status, &out.AssignedDriverID,
		&driverLat, &driverLng, &out.DriverETAMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}

	out.TrackingStatus = booking.ParseTrackingStatus(status)
	if driverLat != nil && driverLng != nil {
		out.DriverLocation = &geo.Point{Lat: *driverLat, Lng: *driverLng}
	}
	return &out, nil
}
