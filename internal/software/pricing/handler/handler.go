package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"shuttle-track/internal/domain/user"
	"shuttle-track/internal/general/jwt"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// PricingHTTPHandler adapts HTTP requests to the PricingService.
type PricingHTTPHandler struct {
	svc       ports.PricingService
	logger    *logger.Logger
	auth      *jwt.Manager
	estimator ports.DistanceEstimator
}

// NewPricingHTTPHandler wires an HTTP handler around the PricingService.
func NewPricingHTTPHandler(
	svc ports.PricingService,
	logger *logger.Logger,
	auth *jwt.Manager,
	estimator ports.DistanceEstimator,
) *PricingHTTPHandler {
	return &PricingHTTPHandler{svc: svc, logger: logger, auth: auth, estimator: estimator}
}

// RegisterRoutes mounts pricing endpoints on the provided mux. Quote and
// promo validation are public: the booking form runs without an account.
func (handler *PricingHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/calculate-price", handler.handleCalculatePrice)
	mux.HandleFunc("POST /api/promo-codes/validate", handler.handleValidatePromo)
	mux.HandleFunc("GET /api/geocode", handler.handleGeocode)

	mux.HandleFunc("POST /api/promo/redeem",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(handler.handleRedeemPromo),
	)
}

// ----- shared helpers (same shape as the tracking handler) -----

func (handler *PricingHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

func (handler *PricingHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

func (handler *PricingHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		var b [12]byte
		_, _ = rand.Read(b[:])
		reqID = hex.EncodeToString(b[:])
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
