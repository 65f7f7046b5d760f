package service

import (
	"context"
	"errors"
	"time"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/ports"
)

// ValidatePromo checks a code against a booking amount. The returned
// Discount is only meaningful for that exact amount; changing the booking
// voids it. An unknown code is reported the same way as an inactive one so
// the endpoint cannot be used to probe the code list.
func (service *pricingService) ValidatePromo(ctx context.Context, code string, bookingAmount float64) (pricing.Discount, error) {
	promo, err := service.lookup(ctx, code)
	if err != nil {
		return pricing.Discount{}, err
	}
	return promo.Evaluate(bookingAmount, time.Now().UTC())
}

// RedeemPromo re-validates and burns one use inside a single transaction, so
// a code at its usage limit cannot be redeemed twice by racing bookings.
func (service *pricingService) RedeemPromo(ctx context.Context, code string, bookingAmount float64) (pricing.Discount, error) {
	var discount pricing.Discount
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		promo, err := service.promos.GetByCode(ctx, pricing.NormalizeCode(code))
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return pricing.Reject("Invalid or expired promo code")
			}
			return err
		}
		discount, err = promo.Evaluate(bookingAmount, time.Now().UTC())
		if err != nil {
			return err
		}
		return service.promos.IncrementUses(ctx, promo.ID)
	})
	if err != nil {
		return pricing.Discount{}, err
	}

	service.logger.Info(ctx, "promo_redeemed", "Promo code redeemed", map[string]any{
		"code":            discount.Code,
		"discount_amount": discount.DiscountAmount,
	})
	return discount, nil
}

func (service *pricingService) lookup(ctx context.Context, code string) (*pricing.PromoCode, error) {
	var promo *pricing.PromoCode
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		promo, err = service.promos.GetByCode(ctx, pricing.NormalizeCode(code))
		return err
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, pricing.Reject("Invalid or expired promo code")
		}
		return nil, err
	}
	return promo, nil
}
