package service

import (
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// pricingService prices trips with live driving distances and validates
// promo codes against the promo_codes table.
type pricingService struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	promos    ports.PromoRepository
	estimator ports.DistanceEstimator
}

// NewPricingService constructs the service with required dependencies.
func NewPricingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	promos ports.PromoRepository,
	estimator ports.DistanceEstimator,
) ports.PricingService {
	return &pricingService{
		logger:    logger,
		uow:       uow,
		promos:    promos,
		estimator: estimator,
	}
}
