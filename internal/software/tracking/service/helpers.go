package service

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// generateCorrelationID returns a random 24-char hex string for message tracing.
func generateCorrelationID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// newTrackingID returns an opaque session id, e.g. "trk_9f86d081a3b2c4d5e6f7".
func newTrackingID() string {
	var b [10]byte
	_, _ = rand.Read(b[:])
	return "trk_" + hex.EncodeToString(b[:])
}

// trackingURL builds the public link customers open from the SMS.
func (service *trackingService) trackingURL(bookingRef string) string {
	return strings.TrimRight(service.publicBaseURL, "/") + "/track/" + bookingRef
}
