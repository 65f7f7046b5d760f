package geo

import (
	"math"
	"testing"
	"time"
)

func TestHaversineKM(t *testing.T) {
	// Orewa to Auckland Airport, roughly the full shuttle run.
	orewaLat, orewaLng := -36.5853, 174.6944
	airportLat, airportLng := -37.0082, 174.7850

	got := HaversineKM(orewaLat, orewaLng, airportLat, airportLng)
	if got < 47.2 || got > 48.2 {
		t.Fatalf("HaversineKM(Orewa, Airport) = %.2f km, want about 47.7", got)
	}

	if d := HaversineKM(orewaLat, orewaLng, orewaLat, orewaLng); d != 0 {
		t.Fatalf("zero-length leg = %v km, want 0", d)
	}

	back := HaversineKM(airportLat, airportLng, orewaLat, orewaLng)
	if math.Abs(got-back) > 1e-9 {
		t.Fatalf("distance is not symmetric: %v vs %v", got, back)
	}
}

func TestFixValidate(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		fix     Fix
		wantErr error
	}{
		{"valid plain fix", Fix{Latitude: -36.80, Longitude: 174.70}, nil},
		{"valid with metadata", Fix{Latitude: -36.80, Longitude: 174.70, AccuracyMeters: f(8), SpeedKMH: f(72), HeadingDegrees: f(182)}, nil},
		{"latitude too low", Fix{Latitude: -90.1, Longitude: 0}, ErrInvalidLatitude},
		{"latitude too high", Fix{Latitude: 90.1, Longitude: 0}, ErrInvalidLatitude},
		{"longitude too low", Fix{Latitude: 0, Longitude: -180.1}, ErrInvalidLongitude},
		{"longitude too high", Fix{Latitude: 0, Longitude: 180.1}, ErrInvalidLongitude},
		{"negative accuracy", Fix{Latitude: 0, Longitude: 0, AccuracyMeters: f(-1)}, ErrNegativeAccuracy},
		{"negative speed", Fix{Latitude: 0, Longitude: 0, SpeedKMH: f(-0.1)}, ErrNegativeSpeed},
		{"heading out of range", Fix{Latitude: 0, Longitude: 0, HeadingDegrees: f(361)}, ErrInvalidHeading},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.fix.Validate(); err != tc.wantErr {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewFixStampsTime(t *testing.T) {
	fix, err := NewFix(-36.80, 174.70, time.Time{})
	if err != nil {
		t.Fatalf("NewFix: %v", err)
	}
	if fix.RecordedAt.IsZero() {
		t.Fatal("RecordedAt was not stamped")
	}

	if _, err := NewFix(-99, 174.70, time.Time{}); err != ErrInvalidLatitude {
		t.Fatalf("err = %v, want ErrInvalidLatitude", err)
	}
}
