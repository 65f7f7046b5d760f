package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ----- Handler: GET /api/geocode?address=... -----

// handleGeocode resolves an address to coordinates for the booking-form map
// preview. The API key stays server-side; browsers never talk to Google.
func (handler *PricingHTTPHandler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "address query parameter is required", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	point, err := handler.estimator.GeocodeAddress(ctxWithTimeout, address)
	if err != nil {
		handler.httpError(ctxWithTimeout, w, http.StatusBadGateway, "failed to geocode address", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, point)
}
