package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	Redis struct {
		Host string
		Port int
	}
	GoogleMaps struct {
		APIKey string
	}
	Twilio struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	Services struct {
		TrackingServicePort int
	}
	JWT struct {
		SecretKey string
	}
	Tracking struct {
		UploadIntervalSeconds int    // driver upload cadence
		PollIntervalSeconds   int    // customer snapshot poll cadence
		SMSThresholdMinutes   int    // ETA at/below this fires the one-time SMS
		SessionTTLHours       int    // live session expiry in Redis
		PublicBaseURL         string // used to build tracking links in SMS
	}
	Client struct {
		APIBaseURL string
	}
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates
// required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	sections, err := parseSections(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var cfg Config
	if err := cfg.assign(sections); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// assign maps parsed sections onto typed fields, rejecting unknown keys.
func (c *Config) assign(sections sectionMap) error {
	for section, keys := range sections {
		for key, value := range keys {
			if err := c.set(section, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Config) set(section, key string, value scalar) error {
	switch section {
	case "database":
		switch key {
		case "host":
			c.Database.Host = value.str()
		case "port":
			return value.toInt(&c.Database.Port, "database.port")
		case "user":
			c.Database.User = value.str()
		case "password":
			c.Database.Password = value.str()
		case "database":
			c.Database.Name = value.str()
		default:
			return fmt.Errorf("unknown key in database: %q", key)
		}
	case "rabbitmq":
		switch key {
		case "host":
			c.RabbitMQ.Host = value.str()
		case "port":
			return value.toInt(&c.RabbitMQ.Port, "rabbitmq.port")
		case "user":
			c.RabbitMQ.User = value.str()
		case "password":
			c.RabbitMQ.Password = value.str()
		default:
			return fmt.Errorf("unknown key in rabbitmq: %q", key)
		}
	case "redis":
		switch key {
		case "host":
			c.Redis.Host = value.str()
		case "port":
			return value.toInt(&c.Redis.Port, "redis.port")
		default:
			return fmt.Errorf("unknown key in redis: %q", key)
		}
	case "google_maps":
		switch key {
		case "api_key":
			c.GoogleMaps.APIKey = value.str()
		default:
			return fmt.Errorf("unknown key in google_maps: %q", key)
		}
	case "twilio":
		switch key {
		case "account_sid":
			c.Twilio.AccountSID = value.str()
		case "auth_token":
			c.Twilio.AuthToken = value.str()
		case "from_number":
			c.Twilio.FromNumber = value.str()
		default:
			return fmt.Errorf("unknown key in twilio: %q", key)
		}
	case "services":
		switch key {
		case "tracking_service":
			return value.toInt(&c.Services.TrackingServicePort, "services.tracking_service")
		default:
			return fmt.Errorf("unknown key in services: %q", key)
		}
	case "jwt":
		switch key {
		case "secret_key":
			c.JWT.SecretKey = value.str()
		default:
			return fmt.Errorf("unknown key in jwt: %q", key)
		}
	case "tracking":
		switch key {
		case "upload_interval_seconds":
			return value.toInt(&c.Tracking.UploadIntervalSeconds, "tracking.upload_interval_seconds")
		case "poll_interval_seconds":
			return value.toInt(&c.Tracking.PollIntervalSeconds, "tracking.poll_interval_seconds")
		case "sms_threshold_minutes":
			return value.toInt(&c.Tracking.SMSThresholdMinutes, "tracking.sms_threshold_minutes")
		case "session_ttl_hours":
			return value.toInt(&c.Tracking.SessionTTLHours, "tracking.session_ttl_hours")
		case "public_base_url":
			c.Tracking.PublicBaseURL = value.str()
		default:
			return fmt.Errorf("unknown key in tracking: %q", key)
		}
	case "client":
		switch key {
		case "api_base_url":
			c.Client.APIBaseURL = value.str()
		default:
			return fmt.Errorf("unknown key in client: %q", key)
		}
	default:
		return fmt.Errorf("unknown top-level section %q", section)
	}
	return nil
}

// applyDefaults sets safe defaults for optional fields.
func (c *Config) applyDefaults() {
	// Database
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}

	// RabbitMQ
	if c.RabbitMQ.Host == "" {
		c.RabbitMQ.Host = "localhost"
	}
	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}

	// Redis
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}

	// Services
	if c.Services.TrackingServicePort == 0 {
		c.Services.TrackingServicePort = 3000
	}

	// Tracking cadences mirror the production defaults.
	if c.Tracking.UploadIntervalSeconds == 0 {
		c.Tracking.UploadIntervalSeconds = 30
	}
	if c.Tracking.PollIntervalSeconds == 0 {
		c.Tracking.PollIntervalSeconds = 10
	}
	if c.Tracking.SMSThresholdMinutes == 0 {
		c.Tracking.SMSThresholdMinutes = 10
	}
	if c.Tracking.SessionTTLHours == 0 {
		c.Tracking.SessionTTLHours = 24
	}
	if c.Tracking.PublicBaseURL == "" {
		c.Tracking.PublicBaseURL = "https://hibiscustoairport.co.nz"
	}

	if c.Client.APIBaseURL == "" {
		c.Client.APIBaseURL = "http://localhost:3000"
	}

	if c.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		c.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	checkPort := func(port int, name string) {
		if port <= 0 || port > 65535 {
			problems = append(problems, name+" must be in 1..65535")
		}
	}

	checkPort(c.Database.Port, "database.port")
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	checkPort(c.RabbitMQ.Port, "rabbitmq.port")
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	checkPort(c.Redis.Port, "redis.port")
	checkPort(c.Services.TrackingServicePort, "services.tracking_service")

	if c.Tracking.UploadIntervalSeconds < 1 {
		problems = append(problems, "tracking.upload_interval_seconds must be >= 1")
	}
	if c.Tracking.PollIntervalSeconds < 1 {
		problems = append(problems, "tracking.poll_interval_seconds must be >= 1")
	}
	if c.Tracking.SMSThresholdMinutes < 1 {
		problems = append(problems, "tracking.sms_threshold_minutes must be >= 1")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
