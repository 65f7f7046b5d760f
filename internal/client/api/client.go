package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shuttle-track/internal/domain/geo"
	"shuttle-track/internal/domain/pricing"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// requestTimeout bounds every call the apps make; a hung request must not
// outlive the next natural tick by much.
const requestTimeout = 15 * time.Second

// ErrNotFound is returned for 404 responses. Callers treat it as a state
// ("tracking not started"), never as a transport failure.
var ErrNotFound = errors.New("not found")

// APIError is a non-404 error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
}

// Client is the shared HTTP client for the driver and customer apps.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
	token      string
}

// NewClient constructs a Client against the given base URL.
func NewClient(baseURL string, logger *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// SetAuthToken installs the bearer token used for driver endpoints.
func (c *Client) SetAuthToken(token string) { c.token = token }

// BaseURL reports the resolved base URL (diagnostics only).
func (c *Client) BaseURL() string { return c.baseURL }

// ----- tracking -----

// StartTracking opens a tracking session for a booking.
func (c *Client) StartTracking(ctx context.Context, bookingID, driverID string) (ports.StartTrackingResult, error) {
	var out ports.StartTrackingResult
	err := c.doJSON(ctx, http.MethodPost, "/api/tracking/start", map[string]string{
		"booking_id": bookingID,
		"driver_id":  driverID,
	}, &out)
	return out, err
}

// UploadLocation posts one driver fix.
func (c *Client) UploadLocation(ctx context.Context, bookingID string, fix geo.Fix) (ports.UpdateLocationResult, error) {
	body := map[string]any{
		"booking_id": bookingID,
		"latitude":   fix.Latitude,
		"longitude":  fix.Longitude,
	}
	if fix.AccuracyMeters != nil {
		body["accuracy_meters"] = *fix.AccuracyMeters
	}
	if fix.SpeedKMH != nil {
		body["speed_kmh"] = *fix.SpeedKMH
	}
	if fix.HeadingDegrees != nil {
		body["heading_degrees"] = *fix.HeadingDegrees
	}

	var out ports.UpdateLocationResult
	err := c.doJSON(ctx, http.MethodPost, "/api/tracking/update-location", body, &out)
	return out, err
}

// StopTracking ends the session for a booking.
func (c *Client) StopTracking(ctx context.Context, bookingID string) (ports.StopTrackingResult, error) {
	var out ports.StopTrackingResult
	err := c.doJSON(ctx, http.MethodPost, "/api/tracking/stop", map[string]string{
		"booking_id": bookingID,
	}, &out)
	return out, err
}

// Snapshot fetches the public tracking view for a booking ref.
// Returns ErrNotFound when tracking has not started.
func (c *Client) Snapshot(ctx context.Context, bookingRef string) (ports.TrackingSnapshot, error) {
	var out ports.TrackingSnapshot
	err := c.doJSON(ctx, http.MethodGet, "/api/tracking/"+url.PathEscape(bookingRef), nil, &out)
	return out, err
}

// ----- pricing -----

// CalculatePrice requests a server quote. The client never does distance
// math; whatever breakdown comes back is stored verbatim by the caller.
func (c *Client) CalculatePrice(ctx context.Context, pickup, dropoff string, passengers int) (pricing.Quote, error) {
	var out pricing.Quote
	err := c.doJSON(ctx, http.MethodPost, "/api/calculate-price", map[string]any{
		"pickupAddress":  pickup,
		"dropoffAddress": dropoff,
		"passengers":     passengers,
	}, &out)
	return out, err
}

// promoEnvelope mirrors the validate-promo response body: the discount fields
// arrive at the top level, next to the valid flag.
type promoEnvelope struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
	pricing.Discount
}

// ValidatePromo checks a code against a booking amount. Rejections come back
// as *pricing.RejectionError carrying the server's reason verbatim.
func (c *Client) ValidatePromo(ctx context.Context, code string, bookingAmount float64) (pricing.Discount, error) {
	var out promoEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/api/promo-codes/validate", map[string]any{
		"code":           code,
		"booking_amount": bookingAmount,
	}, &out)
	if err != nil {
		return pricing.Discount{}, err
	}
	if !out.Valid {
		return pricing.Discount{}, &pricing.RejectionError{Reason: out.Error}
	}
	return out.Discount, nil
}

// Geocode resolves an address to coordinates for the pickup marker.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Point, error) {
	var out geo.Point
	err := c.doJSON(ctx, http.MethodGet, "/api/geocode?address="+url.QueryEscape(address), nil, &out)
	return out, err
}

// ----- plumbing -----

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		var eb struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
