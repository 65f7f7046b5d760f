package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"shuttle-track/internal/domain/pricing"
)

// --- DTOs (HTTP boundary) ---

type validatePromoRequest struct {
	Code          string  `json:"code"`
	BookingAmount float64 `json:"booking_amount"`
}

// Accepted codes answer with the discount fields at the top level, next to
// the valid flag. Rejections carry only the reason; clients display it
// verbatim, the taxonomy is owned here.
type promoAcceptedResponse struct {
	Valid          bool                 `json:"valid"`
	Code           string               `json:"code"`
	DiscountType   pricing.DiscountType `json:"discount_type"`
	DiscountValue  float64              `json:"discount_value"`
	DiscountAmount float64              `json:"discount_amount"`
	FinalAmount    float64              `json:"final_amount"`
	Description    string               `json:"description,omitempty"`
}

type promoRejectedResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

func promoAccepted(d pricing.Discount) promoAcceptedResponse {
	return promoAcceptedResponse{
		Valid:          true,
		Code:           d.Code,
		DiscountType:   d.DiscountType,
		DiscountValue:  d.DiscountValue,
		DiscountAmount: d.DiscountAmount,
		FinalAmount:    d.FinalAmount,
		Description:    d.Description,
	}
}

// ----- Handler: POST /api/promo-codes/validate -----

func (handler *PricingHTTPHandler) handleValidatePromo(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	var req validatePromoRequest
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

	if strings.TrimSpace(req.Code) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "code is required", nil)
		return
	}
	if req.BookingAmount <= 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking_amount must be positive", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	discount, err := handler.svc.ValidatePromo(ctxWithTimeout, req.Code, req.BookingAmount)
	if err != nil {
		// rejections are a normal outcome, not a server error
		var rej *pricing.RejectionError
		if errors.As(err, &rej) {
			handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, promoRejectedResponse{
				Valid: false,
				Error: rej.Reason,
			})
			return
		}
		handler.httpError(ctxWithTimeout, w, http.StatusInternalServerError, "failed to validate promo code", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, promoAccepted(discount))
}

// ----- Handler: POST /api/promo/redeem -----

func (handler *PricingHTTPHandler) handleRedeemPromo(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	var req validatePromoRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "code is required", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	discount, err := handler.svc.RedeemPromo(ctxWithTimeout, req.Code, req.BookingAmount)
	if err != nil {
		var rej *pricing.RejectionError
		if errors.As(err, &rej) {
			handler.jsonResponse(ctxWithTimeout, w, http.StatusConflict, promoRejectedResponse{
				Valid: false,
				Error: rej.Reason,
			})
			return
		}
		handler.httpError(ctxWithTimeout, w, http.StatusInternalServerError, "failed to redeem promo code", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, promoAccepted(discount))
}
