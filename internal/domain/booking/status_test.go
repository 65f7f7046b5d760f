package booking

import (
	"testing"

	"shuttle-track/internal/domain/geo"
)

func TestTrackingStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TrackingStatus
		want     bool
	}{
		{TrackingNotStarted, TrackingDriverOnWay, true},
		{TrackingNotStarted, TrackingArrived, true},
		{TrackingDriverOnWay, TrackingArrived, true},
		{TrackingDriverOnWay, TrackingDriverOnWay, true},
		// monotonic: no reverse transitions
		{TrackingArrived, TrackingDriverOnWay, false},
		{TrackingArrived, TrackingNotStarted, false},
		{TrackingDriverOnWay, TrackingNotStarted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBookingMonotonicArrival(t *testing.T) {
	b := &Booking{ID: "b1", BookingRef: "HIB-1001", TrackingStatus: TrackingNotStarted}

	if err := b.AttachTracking("t1", "d1"); err != nil {
		t.Fatalf("AttachTracking() error = %v", err)
	}
	if b.TrackingStatus != TrackingDriverOnWay {
		t.Fatalf("status = %s, want driver_on_way", b.TrackingStatus)
	}

	if err := b.MarkArrived(); err != nil {
		t.Fatalf("MarkArrived() error = %v", err)
	}
	// arrived is terminal: late position updates must not move it back
	eta := 4
	b.RecordDriverPosition(geo.Point{Lat: -36.80, Lng: 174.70}, &eta)
	if b.TrackingStatus != TrackingArrived {
		t.Errorf("status = %s after late update, want arrived", b.TrackingStatus)
	}
	if b.DriverLocation != nil {
		t.Error("location was recorded after arrival")
	}

	// idempotent terminal transition
	if err := b.MarkArrived(); err != nil {
		t.Errorf("second MarkArrived() error = %v", err)
	}
}
