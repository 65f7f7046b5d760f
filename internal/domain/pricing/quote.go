package pricing

import (
	"errors"
	"math"
)

// Quote is the priced breakdown for one pickup/dropoff/passenger combination.
// All amounts are NZD with 2-decimal semantics.
type Quote struct {
	DistanceKM          float64 `json:"distance"`
	BasePrice           float64 `json:"basePrice"`
	AirportFee          float64 `json:"airportFee"`
	PassengerFee        float64 `json:"passengerFee"`
	OversizedLuggageFee float64 `json:"oversizedLuggageFee"`
	TotalPrice          float64 `json:"totalPrice"`
	RatePerKM           float64 `json:"ratePerKm"`
}

var (
	ErrNegativeDistance = errors.New("distance cannot be negative")
	ErrNoPassengers     = errors.New("passengers must be at least 1")
)

// ComputeQuote prices a trip from its total distance. The base price is
// distance times the bracket rate; passenger, VIP, and luggage fees are added
// on top. If the total falls under the minimum fare, the shortfall is folded
// into the base price so the breakdown still sums to the total.
func ComputeQuote(distanceKM float64, passengers int, vipPickup, oversizedLuggage bool) (Quote, error) {
	if distanceKM < 0 {
		return Quote{}, ErrNegativeDistance
	}
	if passengers < 1 {
		return Quote{}, ErrNoPassengers
	}

	rate := RateForDistance(distanceKM)
	basePrice := distanceKM * rate

	passengerFee := float64(passengers-1) * ExtraPassengerFee
	airportFee := 0.0
	if vipPickup {
		airportFee = VIPPickupFee
	}
	luggageFee := 0.0
	if oversizedLuggage {
		luggageFee = OversizedLuggageFee
	}

	total := basePrice + passengerFee + airportFee + luggageFee
	if total < MinimumFare {
		total = MinimumFare
		basePrice = MinimumFare - passengerFee - airportFee - luggageFee
	}

	return Quote{
		DistanceKM:          round2(distanceKM),
		BasePrice:           round2(basePrice),
		AirportFee:          round2(airportFee),
		PassengerFee:        round2(passengerFee),
		OversizedLuggageFee: round2(luggageFee),
		TotalPrice:          round2(total),
		RatePerKM:           rate,
	}, nil
}

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
