package geo

import (
	"errors"
	"math"
	"time"
)

// Fix is a single geolocation reading from a driver device: position plus
// optional accuracy/timing metadata.
type Fix struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters *float64
	SpeedKMH       *float64
	HeadingDegrees *float64
	RecordedAt     time.Time
}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
	ErrNegativeAccuracy = errors.New("accuracy_meters cannot be negative")
	ErrNegativeSpeed    = errors.New("speed_kmh cannot be negative")
	ErrInvalidHeading   = errors.New("heading_degrees must be between 0 and 360")
)

// NewFix constructs a Fix stamped with the given time (now if zero).
func NewFix(lat, lng float64, recordedAt time.Time) (Fix, error) {
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	fix := Fix{Latitude: lat, Longitude: lng, RecordedAt: recordedAt}
	if err := fix.Validate(); err != nil {
		return Fix{}, err
	}
	return fix, nil
}

// Validate checks coordinate ranges and metadata bounds.
func (fix Fix) Validate() error {
	if fix.Latitude < -90 || fix.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if fix.Longitude < -180 || fix.Longitude > 180 {
		return ErrInvalidLongitude
	}
	if fix.AccuracyMeters != nil && *fix.AccuracyMeters < 0 {
		return ErrNegativeAccuracy
	}
	if fix.SpeedKMH != nil && *fix.SpeedKMH < 0 {
		return ErrNegativeSpeed
	}
	if fix.HeadingDegrees != nil && (*fix.HeadingDegrees < 0 || *fix.HeadingDegrees > 360) {
		return ErrInvalidHeading
	}
	return nil
}

// Point is a bare latitude/longitude pair used on the wire and in snapshots.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKM returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371.0

	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
