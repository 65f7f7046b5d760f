package driver

import (
	"context"
	"sync"
	"time"

	"shuttle-track/internal/domain/geo"
)

// SimulatedSource walks a straight line between two points, one step per
// interval, then idles at the destination. It stands in for device GPS in
// the driver binary and in demos.
type SimulatedSource struct {
	from     geo.Point
	to       geo.Point
	steps    int
	interval time.Duration

	mu   sync.Mutex
	step int
}

// NewSimulatedSource builds a source that covers from->to in the given number
// of steps, emitting one fix per interval.
func NewSimulatedSource(from, to geo.Point, steps int, interval time.Duration) *SimulatedSource {
	if steps < 1 {
		steps = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &SimulatedSource{from: from, to: to, steps: steps, interval: interval}
}

// Current returns the position at the current step without advancing.
func (s *SimulatedSource) Current(ctx context.Context) (geo.Fix, error) {
	if err := ctx.Err(); err != nil {
		return geo.Fix{}, err
	}
	s.mu.Lock()
	fix := s.at(s.step)
	s.mu.Unlock()
	return fix, nil
}

// Watch advances one step per interval and emits the resulting fix. The
// stream closes only on ctx cancellation; once the destination is reached it
// keeps emitting the final position, like a parked vehicle.
func (s *SimulatedSource) Watch(ctx context.Context) (<-chan Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.step < s.steps {
					s.step++
				}
				fix := s.at(s.step)
				s.mu.Unlock()

				select {
				case out <- Event{Fix: &fix}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// at interpolates the position for a step. Caller holds s.mu.
func (s *SimulatedSource) at(step int) geo.Fix {
	frac := float64(step) / float64(s.steps)
	return geo.Fix{
		Latitude:   s.from.Lat + (s.to.Lat-s.from.Lat)*frac,
		Longitude:  s.from.Lng + (s.to.Lng-s.from.Lng)*frac,
		RecordedAt: time.Now().UTC(),
	}
}
