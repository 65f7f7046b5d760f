package booking

// TrackingStatus is the customer-visible lifecycle of a trip-tracking session.
// Transitions are strictly forward: once ARRIVED the session never moves back.
type TrackingStatus string

const (
	TrackingNotStarted  TrackingStatus = "not_started"
	TrackingDriverOnWay TrackingStatus = "driver_on_way"
	TrackingArrived     TrackingStatus = "arrived"
)

// Valid reports whether the status is one of the known values.
func (status TrackingStatus) Valid() bool {
	switch status {
	case TrackingNotStarted, TrackingDriverOnWay, TrackingArrived:
		return true
	default:
		return false
	}
}

func (status TrackingStatus) String() string { return string(status) }

// Terminal reports whether no further transition is allowed.
func (status TrackingStatus) Terminal() bool { return status == TrackingArrived }

// rank orders statuses so that only forward transitions are possible.
func (status TrackingStatus) rank() int {
	switch status {
	case TrackingNotStarted:
		return 0
	case TrackingDriverOnWay:
		return 1
	case TrackingArrived:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from the current status to next is a
// legal forward transition. Self-transitions are allowed (idempotent updates).
func (status TrackingStatus) CanTransitionTo(next TrackingStatus) bool {
	if !status.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= status.rank()
}

// ParseTrackingStatus maps a stored string to a TrackingStatus, defaulting to
// NOT_STARTED for unknown or empty values (legacy rows predate the column).
func ParseTrackingStatus(s string) TrackingStatus {
	status := TrackingStatus(s)
	if !status.Valid() {
		return TrackingNotStarted
	}
	return status
}
