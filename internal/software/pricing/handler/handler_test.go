package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/general/jwt"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

type fakePricingService struct {
	lastReq  ports.QuoteRequest
	quote    pricing.Quote
	discount pricing.Discount
	promoErr error
}

func (f *fakePricingService) CalculatePrice(_ context.Context, req ports.QuoteRequest) (pricing.Quote, error) {
	f.lastReq = req
	return f.quote, nil
}

func (f *fakePricingService) ValidatePromo(context.Context, string, float64) (pricing.Discount, error) {
	if f.promoErr != nil {
		return pricing.Discount{}, f.promoErr
	}
	return f.discount, nil
}

func (f *fakePricingService) RedeemPromo(ctx context.Context, code string, amount float64) (pricing.Discount, error) {
	return f.ValidatePromo(ctx, code, amount)
}

type fakeEstimator struct{}

func (fakeEstimator) DriveEstimate(context.Context, string, string) (float64, int, error) {
	return 47.7, 42, nil
}

func (fakeEstimator) GeocodeAddress(context.Context, string) (geo.Point, error) {
	return geo.Point{Lat: -36.58, Lng: 174.69}, nil
}

func newTestMux(svc *fakePricingService) *http.ServeMux {
	h := NewPricingHTTPHandler(
		svc,
		logger.New("pricing-handler-test"),
		jwt.NewManager("pricing-handler-test-secret", time.Hour),
		fakeEstimator{},
	)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func TestCalculatePriceAcceptsCamelCasePayload(t *testing.T) {
	svc := &fakePricingService{quote: pricing.Quote{DistanceKM: 47.7, TotalPrice: 210.8}}
	mux := newTestMux(svc)

	body := `{"pickupAddress":"12 Moana Ave, Orewa","dropoffAddress":"Auckland Airport","passengers":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/calculate-price", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastReq.PickupAddress != "12 Moana Ave, Orewa" || svc.lastReq.Passengers != 3 {
		t.Fatalf("service saw %+v", svc.lastReq)
	}

	var quote pricing.Quote
	if err := json.NewDecoder(rec.Body).Decode(&quote); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if quote.TotalPrice != 210.8 {
		t.Fatalf("quote = %+v", quote)
	}
}

func TestCalculatePriceRejectsUnknownFields(t *testing.T) {
	mux := newTestMux(&fakePricingService{})

	body := `{"pickup_address":"a","dropoff_address":"b","passengers":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/calculate-price", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown fields", rec.Code)
	}
}

func TestValidatePromoResponseIsFlat(t *testing.T) {
	svc := &fakePricingService{discount: pricing.Discount{
		Code:           "SAVE10",
		DiscountType:   pricing.DiscountPercentage,
		DiscountValue:  10,
		DiscountAmount: 15,
		FinalAmount:    135,
	}}
	mux := newTestMux(svc)

	body := `{"code":"SAVE10","booking_amount":150}`
	req := httptest.NewRequest(http.MethodPost, "/api/promo-codes/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["valid"] != true || got["code"] != "SAVE10" {
		t.Fatalf("response = %v", got)
	}
	if got["discount_amount"] != 15.0 || got["final_amount"] != 135.0 {
		t.Fatalf("response = %v, want discount fields at the top level", got)
	}
	if _, nested := got["discount"]; nested {
		t.Fatalf("response = %v, discount must not be nested", got)
	}
}

func TestValidatePromoRejectionCarriesReason(t *testing.T) {
	svc := &fakePricingService{promoErr: &pricing.RejectionError{Reason: "Promo code has expired"}}
	mux := newTestMux(svc)

	body := `{"code":"OLD","booking_amount":150}`
	req := httptest.NewRequest(http.MethodPost, "/api/promo-codes/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, rejections are a normal outcome", rec.Code)
	}

	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["valid"] != false || got["error"] != "Promo code has expired" {
		t.Fatalf("response = %v", got)
	}
}
