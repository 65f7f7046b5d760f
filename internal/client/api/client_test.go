package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/general/config"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, logger.New("api-test"))
}

func TestResolveBaseURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Client.APIBaseURL = "http://from-config:3000"

	env := func(key string) string {
		if key == EnvBaseURL {
			return "http://from-env:3000/"
		}
		return ""
	}
	noEnv := func(string) string { return "" }

	tests := []struct {
		name   string
		flag   string
		getenv func(string) string
		cfg    *config.Config
		want   string
	}{
		{"flag wins over everything", "http://from-flag:3000/", env, cfg, "http://from-flag:3000"},
		{"env wins over config", "", env, cfg, "http://from-env:3000"},
		{"config wins over default", "", noEnv, cfg, "http://from-config:3000"},
		{"default when nothing set", "", noEnv, nil, "http://localhost:3000"},
		{"blank flag is skipped", "   ", noEnv, nil, "http://localhost:3000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveBaseURL(tc.flag, tc.getenv, tc.cfg); got != tc.want {
				t.Fatalf("ResolveBaseURL = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSnapshotNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "booking not found"})
	})

	_, err := c.Snapshot(context.Background(), "HB9999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSnapshotServerError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database error"})
	})

	_, err := c.Snapshot(context.Background(), "HB1234")
	if errors.Is(err, ErrNotFound) {
		t.Fatal("a 500 must not be reported as ErrNotFound")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "database error" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestSnapshotOK(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tracking/HB1234" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ports.TrackingSnapshot{
			BookingRef:     "HB1234",
			TrackingStatus: "driver_on_way",
		})
	})

	snap, err := c.Snapshot(context.Background(), "HB1234")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.BookingRef != "HB1234" || snap.TrackingStatus != "driver_on_way" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestAuthTokenAttached(t *testing.T) {
	var gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(ports.StopTrackingResult{Status: "arrived"})
	})
	c.SetAuthToken("tok-abc")

	if _, err := c.StopTracking(context.Background(), "bkg-1"); err != nil {
		t.Fatalf("StopTracking: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestCalculatePriceSendsCamelCase(t *testing.T) {
	var body map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(pricing.Quote{TotalPrice: 110})
	})

	if _, err := c.CalculatePrice(context.Background(), "12 Moana Ave, Orewa", "Auckland Airport", 2); err != nil {
		t.Fatalf("CalculatePrice: %v", err)
	}
	if body["pickupAddress"] != "12 Moana Ave, Orewa" || body["dropoffAddress"] != "Auckland Airport" {
		t.Fatalf("request body = %v, want camelCase address keys", body)
	}
	if _, stale := body["pickup_address"]; stale {
		t.Fatalf("request body = %v, snake_case address keys must not be sent", body)
	}
}

func TestValidatePromoRejection(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"valid": false,
			"error": "Invalid or expired promo code",
		})
	})

	_, err := c.ValidatePromo(context.Background(), "NOPE", 150)
	var rej *pricing.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("err = %T %v, want *pricing.RejectionError", err, err)
	}
	if rej.Reason != "Invalid or expired promo code" {
		t.Fatalf("reason = %q, want the server's wording verbatim", rej.Reason)
	}
}

// The discount fields arrive at the top level of the response, not nested
// under a discount object.
func TestValidatePromoAccepted(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"valid":           true,
			"code":            "SAVE10",
			"discount_type":   "percentage",
			"discount_value":  10,
			"discount_amount": 15,
			"final_amount":    135,
		})
	})

	d, err := c.ValidatePromo(context.Background(), "SAVE10", 150)
	if err != nil {
		t.Fatalf("ValidatePromo: %v", err)
	}
	if d.Code != "SAVE10" || d.DiscountAmount != 15 || d.FinalAmount != 135 {
		t.Fatalf("discount = %+v", d)
	}
}
