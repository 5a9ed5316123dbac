// Package provider implements the HTTP transport shared by the upstream API
// clients.
//
// This package contains:
//   - Provider interface: core abstraction for an upstream endpoint
//   - HTTPProvider: JSON over HTTP GET implementation
//   - ProviderMonitor: latency and throttle tracking
//   - CallError: typed upstream failures matched with errors.Is
package provider

import (
	"net/http"
	"net/url"
	"time"
)

// Operation represents a single upstream request.
type Operation struct {
	// Name identifies the operation for metrics and logs (e.g., "resolve", "player")
	Name string

	// Path is appended to the provider base URL.
	Path string

	// Query is encoded onto the request URL when non-empty.
	Query url.Values

	// Header is merged onto the outgoing request.
	Header http.Header
}

// Response is a non-throttled upstream reply. Interpreting the status code
// beyond 429/403 is left to the calling client.
type Response struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Provider defines the core interface for an upstream API endpoint.
type Provider interface {
	// GetName returns the provider identifier (e.g., "mojang", "hypixel")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
