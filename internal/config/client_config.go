package config

import (
	"strconv"
	"time"
)

const (
	apiBaseURLVar     = "COMMUNIGO_API_URL"
	storageKeyVar     = "SESSION_STORAGE_KEY"
	authCookieVar     = "AUTH_COOKIE_NAME"
	httpTimeoutVar    = "HTTP_TIMEOUT_SECONDS"
	defaultAPIBaseURL = "http://localhost:8080"
)

// Client holds client-side configuration sourced from environment variables.
type Client struct{}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the base URL of the community-admin backend
// (e.g. "https://api.communigo.example.com")
func (Client) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, defaultAPIBaseURL)
}

// GetSessionStorageKey returns the storage key (file name) under which the
// persisted session record is written in the data folder
func (Client) GetSessionStorageKey() string {
	return GetEnv(storageKeyVar, "communigo_session")
}

// GetAuthCookieName returns the name of the auth-state indicator used by
// server-side route guards
func (Client) GetAuthCookieName() string {
	return GetEnv(authCookieVar, "communigo_auth")
}

// GetHTTPTimeout returns the transport-level timeout for backend calls
func (Client) GetHTTPTimeout() time.Duration {
	return durationSeconds(httpTimeoutVar, 30*time.Second)
}

func durationSeconds(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
