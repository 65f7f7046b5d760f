package postgres

import (
	"context"
	"fmt"

	"shuttle-track/internal/ports"
)

// LocationHistoryRepo appends driver fixes to location_history for auditing.
type LocationHistoryRepo struct{}

// NewLocationHistoryRepo constructs a new LocationHistoryRepo.
func NewLocationHistoryRepo() ports.LocationHistoryRepository {
	return &LocationHistoryRepo{}
}

// Archive inserts one fix. Rows are append-only; nothing reads them on the
// hot path.
func (repo *LocationHistoryRepo) Archive(ctx context.Context, rec ports.LocationRecord) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO location_history (
			booking_id, driver_id, latitude, longitude,
			accuracy_meters, speed_kmh, heading_degrees, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.BookingID,
		rec.DriverID,
		rec.Fix.Latitude,
		rec.Fix.Longitude,
		rec.Fix.AccuracyMeters,
		rec.Fix.SpeedKMH,
		rec.Fix.HeadingDegrees,
		rec.Fix.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("archive location: %w", err)
	}
	return nil
}
