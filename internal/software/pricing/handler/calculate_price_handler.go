package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/ports"
	pricingsvc "shuttle-track/internal/software/pricing/service"
)

// --- Request DTO (HTTP boundary) ---

// The booking form speaks camelCase on this endpoint.
type calculatePriceRequest struct {
	PickupAddress    string `json:"pickupAddress"`
	DropoffAddress   string `json:"dropoffAddress"`
	Passengers       int    `json:"passengers"`
	VIPPickup        bool   `json:"vipPickup"`
	OversizedLuggage bool   `json:"oversizedLuggage"`
}

// ----- Handler: POST /api/calculate-price -----

func (handler *PricingHTTPHandler) handleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	// decode strictly
	var req calculatePriceRequest
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

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	quote, err := handler.svc.CalculatePrice(ctxWithTimeout, ports.QuoteRequest{
		PickupAddress:    strings.TrimSpace(req.PickupAddress),
		DropoffAddress:   strings.TrimSpace(req.DropoffAddress),
		Passengers:       req.Passengers,
		VIPPickup:        req.VIPPickup,
		OversizedLuggage: req.OversizedLuggage,
	})
	if err != nil {
		switch {
		case errors.Is(err, pricingsvc.ErrPickupRequired),
			errors.Is(err, pricingsvc.ErrDropoffRequired),
			errors.Is(err, pricing.ErrNoPassengers),
			errors.Is(err, pricing.ErrNegativeDistance):
			handler.httpError(ctxWithTimeout, w, http.StatusBadRequest, err.Error(), err)
		default:
			handler.httpError(ctxWithTimeout, w, http.StatusBadGateway, "failed to calculate price", err)
		}
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, quote)
}
