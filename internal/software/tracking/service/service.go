package service

import (
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// trackingService holds all dependencies required by the tracking flow.
type trackingService struct {
	logger     *logger.Logger
	uow        ports.UnitOfWork
	bookings   ports.BookingRepository
	drivers    ports.DriverRepository
	locHistory ports.LocationHistoryRepository
	sessions   ports.SessionStore
	pub        ports.MessagePublisher
	estimator  ports.DistanceEstimator

	smsThresholdMinutes int
	publicBaseURL       string
}

// NewTrackingService constructs the service with required dependencies.
func NewTrackingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	bookings ports.BookingRepository,
	drivers ports.DriverRepository,
	locHistory ports.LocationHistoryRepository,
	sessions ports.SessionStore,
	pub ports.MessagePublisher,
	estimator ports.DistanceEstimator,
	smsThresholdMinutes int,
	publicBaseURL string,
) ports.TrackingService {
	return &trackingService{
		logger:              logger,
		uow:                 uow,
		bookings:            bookings,
		drivers:             drivers,
		locHistory:          locHistory,
		sessions:            sessions,
		pub:                 pub,
		estimator:           estimator,
		smsThresholdMinutes: smsThresholdMinutes,
		publicBaseURL:       publicBaseURL,
	}
}
