package postgres

import (
	"context"
	"errors"
	"fmt"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/ports"

	"github.com/jackc/pgx/v5"
)

// DriverRepo reads driver display info using pgx and plain SQL.
type DriverRepo struct{}

// NewDriverRepo constructs a new DriverRepo.
func NewDriverRepo() ports.DriverRepository {
	return &DriverRepo{}
}

// GetByID fetches a driver by primary key (uuid).
func (repo *DriverRepo) GetByID(ctx context.Context, id string) (*booking.Driver, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out booking.Driver
	err = tx.QueryRow(ctx, `
		SELECT id, name, phone, email, vehicle
		FROM drivers
		WHERE id = $1
	`, id).Scan(&out.ID, &out.Name, &out.Phone, &out.Email, &out.Vehicle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("scan driver: %w", err)
	}
	return &out, nil
}
