package customer

import (
	"fmt"

	"shuttle-track/internal/domain/booking"
)

// StatusLine renders the one-line tracking status shown above the map. It is
// a pure function of the snapshot's status and ETA so the page never invents
// state the server did not report.
func StatusLine(trackingStatus string, etaMinutes *int) string {
	switch booking.TrackingStatus(trackingStatus) {
	case booking.TrackingDriverOnWay:
		if etaMinutes != nil {
			return fmt.Sprintf("Your driver is on the way, about %d min away", *etaMinutes)
		}
		return "Your driver is on the way"
	case booking.TrackingArrived:
		return "Your driver has arrived"
	default:
		return "Your driver has not left yet"
	}
}
