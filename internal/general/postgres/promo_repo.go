package postgres

import (
	"context"
	"errors"
	"fmt"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/ports"

	"github.com/jackc/pgx/v5"
)

// PromoRepo reads promo codes using pgx and plain SQL.
type PromoRepo struct{}

// NewPromoRepo constructs a new PromoRepo.
func NewPromoRepo() ports.PromoRepository {
	return &PromoRepo{}
}

// GetByCode fetches a promo code row by its normalized code. Rule evaluation
// (active, expiry, limits) happens in the domain, not here.
func (repo *PromoRepo) GetByCode(ctx context.Context, code string) (*pricing.PromoCode, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out pricing.PromoCode
	var discountType string
	err = tx.QueryRow(ctx, `
		SELECT id, code, discount_type, discount_value, min_booking_amount,
		       max_uses, uses_count, expiry_date, active, description
		FROM promo_codes
		WHERE code = $1
	`, code).Scan(
		&out.ID, &out.Code, &discountType, &out.DiscountValue, &out.MinBookingAmount,
		&out.MaxUses, &out.UsesCount, &out.ExpiryDate, &out.Active, &out.Description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("scan promo code: %w", err)
	}
	out.DiscountType = pricing.DiscountType(discountType)
	return &out, nil
}

// IncrementUses bumps uses_count by one.
func (repo *PromoRepo) IncrementUses(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE promo_codes
		SET uses_count = uses_count + 1,
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("increment promo uses: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
