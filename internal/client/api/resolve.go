package api

import (
	"strings"

	"shuttle-track/internal/general/config"
)

// defaultBaseURL is the local tracking service address.
const defaultBaseURL = "http://localhost:3000"

// EnvBaseURL is the environment variable consulted when no flag is given.
const EnvBaseURL = "SHUTTLE_API_BASE"

// ResolveBaseURL picks the API base URL once, from an ordered source list:
// command-line flag, then environment, then config file, then the default.
// The winner is fixed for the process lifetime; nothing re-resolves per call.
func ResolveBaseURL(flagValue string, getenv func(string) string, cfg *config.Config) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return strings.TrimRight(v, "/")
	}
	if getenv != nil {
		if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	if cfg != nil {
		if v := strings.TrimSpace(cfg.Client.APIBaseURL); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return defaultBaseURL
}
