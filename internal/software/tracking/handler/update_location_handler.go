package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/general/jwt"
	"shuttle-track/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// --- Request DTO (HTTP boundary) ---

type updateLocationRequest struct {
	BookingID string `json:"booking_id"`
	// accepted on the wire but never trusted; the token subject wins
	DriverID       string   `json:"driver_id,omitempty"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
	SpeedKMH       *float64 `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64 `json:"heading_degrees,omitempty"`
}

// ----- Handler: POST /api/tracking/update-location -----

func (handler *TrackingHTTPHandler) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	// the driver id comes from the token, never from the body
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}
	driverID := strings.TrimSpace(claims.Subject)
	if driverID == "" {
		handler.httpError(ctx, w, http.StatusUnauthorized, "token has no subject", errors.New("empty subject"))
		return
	}

	// decode strictly
	var req updateLocationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if strings.TrimSpace(req.BookingID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking_id is required", nil)
		return
	}

	in := ports.UpdateLocationInput{
		DriverID:       driverID,
		BookingID:      strings.TrimSpace(req.BookingID),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
		SpeedKMH:       req.SpeedKMH,
		HeadingDegrees: req.HeadingDegrees,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.UpdateLocation(ctxWithTimeout, in)
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrInvalidLatitude),
			errors.Is(err, geo.ErrInvalidLongitude),
			errors.Is(err, geo.ErrNegativeAccuracy),
			errors.Is(err, geo.ErrNegativeSpeed),
			errors.Is(err, geo.ErrInvalidHeading):
			handler.httpError(ctxWithTimeout, w, http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, ports.ErrNotFound):
			handler.httpError(ctxWithTimeout, w, http.StatusNotFound, "no active tracking session for booking", err)
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				handler.httpError(ctxWithTimeout, w, http.StatusInternalServerError, "database error", err)
				return
			}
			handler.httpError(ctxWithTimeout, w, http.StatusInternalServerError, "failed to update location", err)
		}
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
