package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shuttle-track/internal/general/config"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/ports"
)

// TwilioSender delivers SMS through the Twilio Messages API.
type TwilioSender struct {
	httpClient *http.Client
	logger     *logger.Logger
	accountSID string
	authToken  string
	from       string
}

// NewTwilioSender constructs a sender from config.
func NewTwilioSender(cfg *config.Config, logger *logger.Logger) ports.SMSSender {
	return &TwilioSender{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		accountSID: cfg.Twilio.AccountSID,
		authToken:  cfg.Twilio.AuthToken,
		from:       cfg.Twilio.FromNumber,
	}
}

// Send delivers one text message. The body is posted form-encoded with basic
// auth, per the Twilio REST contract.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// Twilio error bodies are small JSON blobs; capture a bounded slice
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio responded %d: %s", resp.StatusCode, string(snippet))
	}

	s.logger.Info(ctx, "sms_delivered", "SMS handed to Twilio", map[string]any{"to": to})
	return nil
}
