package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"shuttle-track/internal/ports"
)

// ----- Handler: GET /api/tracking/{tracking_ref} -----

// handleSnapshot serves the public read-only tracking view. No auth: the
// booking ref acts as the capability.
func (handler *TrackingHTTPHandler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ref := strings.TrimSpace(r.PathValue("tracking_ref"))
	if ref == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing tracking_ref in path", nil)
		return
	}
	ctx = handler.logger.WithBookingRef(ctx, ref)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	snap, err := handler.svc.Snapshot(ctxWithTimeout, ref)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			handler.httpError(ctxWithTimeout, w, http.StatusNotFound, "booking not found", err)
			return
		}
		handler.httpError(ctxWithTimeout, w, http.StatusInternalServerError, "failed to load tracking info", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, snap)
}
