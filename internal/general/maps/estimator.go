package maps

import (
	"context"
	"fmt"

	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/ports"

	"googlemaps.github.io/maps"
)

// Estimator answers driving distance/duration and geocoding questions using
// the Google Maps API. Origins may be street addresses or "lat,lng" pairs.
type Estimator struct {
	client *maps.Client
}

// NewEstimator creates an Estimator with the given API key.
func NewEstimator(apiKey string) (*Estimator, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Estimator{client: client}, nil
}

var _ ports.DistanceEstimator = (*Estimator)(nil)

// DriveEstimate returns driving distance in km and duration in whole minutes
// from origin to destination.
func (s *Estimator) DriveEstimate(ctx context.Context, origin, destination string) (float64, int, error) {
	r := &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}

	resp, err := s.client.DistanceMatrix(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}
	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, 0, fmt.Errorf("no route found: %s", element.Status)
	}

	distanceKM := float64(element.Distance.Meters) / 1000.0
	minutes := int(element.Duration.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return distanceKM, minutes, nil
}

// GeocodeAddress resolves a street address to a point.
func (s *Estimator) GeocodeAddress(ctx context.Context, address string) (geo.Point, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  "nz",
	})
	if err != nil {
		return geo.Point{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return geo.Point{}, fmt.Errorf("address not found")
	}

	loc := results[0].Geometry.Location
	return geo.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
