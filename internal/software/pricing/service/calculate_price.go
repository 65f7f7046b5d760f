package service

import (
	"context"
	"errors"
	"strings"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/ports"
)

var (
	ErrPickupRequired  = errors.New("pickup_address is required")
	ErrDropoffRequired = errors.New("dropoff_address is required")
)

// CalculatePrice resolves the driving distance between the two addresses and
// prices the trip with the tiered rate table. The quote breakdown is returned
// as computed; clients must not re-derive any of its fields.
func (service *pricingService) CalculatePrice(ctx context.Context, req ports.QuoteRequest) (pricing.Quote, error) {
	if strings.TrimSpace(req.PickupAddress) == "" {
		return pricing.Quote{}, ErrPickupRequired
	}
	if strings.TrimSpace(req.DropoffAddress) == "" {
		return pricing.Quote{}, ErrDropoffRequired
	}
	if req.Passengers < 1 {
		return pricing.Quote{}, pricing.ErrNoPassengers
	}

	distanceKM, _, err := service.estimator.DriveEstimate(ctx, req.PickupAddress, req.DropoffAddress)
	if err != nil {
		service.logger.Error(ctx, "distance_lookup_failed", "Failed to resolve driving distance", err, map[string]any{
			"pickup":  req.PickupAddress,
			"dropoff": req.DropoffAddress,
		})
		return pricing.Quote{}, err
	}

	quote, err := pricing.ComputeQuote(distanceKM, req.Passengers, req.VIPPickup, req.OversizedLuggage)
	if err != nil {
		return pricing.Quote{}, err
	}

	service.logger.Info(ctx, "price_calculated", "Trip priced", map[string]any{
		"distance_km": quote.DistanceKM,
		"total_price": quote.TotalPrice,
		"rate_per_km": quote.RatePerKM,
		"passengers":  req.Passengers,
	})

	return quote, nil
}
