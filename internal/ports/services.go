package ports

import (
	"context"
	"time"

	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/domain/pricing"
)

// ----- DTOs for the Tracking Service -----

// StartTrackingInput is the validated input for POST /api/tracking/start.
type StartTrackingInput struct {
	BookingID string // from body
	DriverID  string // from body
}

// StartTrackingResult matches the API response for starting tracking.
type StartTrackingResult struct {
	TrackingID  string `json:"tracking_id"`
	TrackingURL string `json:"tracking_url"`
	Message     string `json:"message"`
}

// UpdateLocationInput is the validated input for POST /api/tracking/update-location.
type UpdateLocationInput struct {
	DriverID       string
	BookingID      string
	Latitude       float64
	Longitude      float64
	AccuracyMeters *float64 // optional
	SpeedKMH       *float64 // optional
	HeadingDegrees *float64 // optional
}

// UpdateLocationResult matches the API response for a location update.
type UpdateLocationResult struct {
	Status     string `json:"status"` // "updated"
	ETAMinutes *int   `json:"eta_minutes"`
	SMSSent    bool   `json:"sms_sent"`
}

// StopTrackingResult matches the API response for stopping tracking.
type StopTrackingResult struct {
	Message string `json:"message"`
	Status  string `json:"status"` // "arrived"
}

// DriverInfo is the denormalized driver block of the public snapshot.
type DriverInfo struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Vehicle string `json:"vehicle"`
	Phone   string `json:"phone"`
}

// TrackingSnapshot is the public read-only view keyed by booking ref.
type TrackingSnapshot struct {
	BookingID      string      `json:"booking_id"`
	BookingRef     string      `json:"booking_ref"`
	CustomerName   string      `json:"customer_name"`
	CustomerPhone  string      `json:"customer_phone"`
	PickupAddress  string      `json:"pickup_address"`
	DropoffAddress string      `json:"dropoff_address"`
	PickupDate     string      `json:"pickup_date"`
	PickupTime     string      `json:"pickup_time"`
	TrackingStatus string      `json:"tracking_status"`
	ETAMinutes     *int        `json:"eta_minutes,omitempty"`
	Location       *geo.Point  `json:"location,omitempty"`
	Driver         *DriverInfo `json:"driver,omitempty"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
}

// ----- Tracking Service Interface -----

// TrackingService exposes the boundary of the live-tracking flow.
type TrackingService interface {
	StartTracking(ctx context.Context, in StartTrackingInput) (StartTrackingResult, error)
	UpdateLocation(ctx context.Context, in UpdateLocationInput) (UpdateLocationResult, error)
	Snapshot(ctx context.Context, trackingRef string) (TrackingSnapshot, error)
	StopTracking(ctx context.Context, bookingID string) (StopTrackingResult, error)
}

// ---------------------------------------------------------------------------

// ----- DTOs for the Pricing Service -----

// QuoteRequest is the validated input for POST /api/calculate-price.
type QuoteRequest struct {
	PickupAddress    string
	DropoffAddress   string
	Passengers       int
	VIPPickup        bool
	OversizedLuggage bool
}

// ----- Pricing Service Interface -----

// PricingService prices trips and validates promo codes.
type PricingService interface {
	CalculatePrice(ctx context.Context, req QuoteRequest) (pricing.Quote, error)
	ValidatePromo(ctx context.Context, code string, bookingAmount float64) (pricing.Discount, error)

	// RedeemPromo re-validates the code and burns one use. Called when a
	// booking with an applied code is confirmed.
	RedeemPromo(ctx context.Context, code string, bookingAmount float64) (pricing.Discount, error)
}

// ---------------------------------------------------------------------------

// DistanceEstimator abstracts the Google Maps calls so services can be tested
// without the network.
type DistanceEstimator interface {
	// DriveEstimate returns driving distance (km) and duration (minutes)
	// from origin to destination.
	DriveEstimate(ctx context.Context, origin, destination string) (distanceKM float64, durationMinutes int, err error)

	// GeocodeAddress resolves a street address to a point.
	GeocodeAddress(ctx context.Context, address string) (geo.Point, error)
}
