// Package health serves /metrics and upstream health while a run is active.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/rankcheck/internal/infra/rpc/provider"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusThrottled Status = "throttled"
)

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	providers []provider.Provider
	server    *http.Server
}

// NewServer creates a new health server. Metrics from every extra gatherer
// are served next to the default registry.
func NewServer(addr string, providers []provider.Provider, extra ...prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	s := &Server{
		providers: providers,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	gatherers := append(prometheus.Gatherers{prometheus.DefaultGatherer}, extra...)

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))

	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := StatusHealthy

	// Any throttled upstream stalls the run
	for _, p := range s.providers {
		if !p.IsAvailable() {
			status = StatusThrottled
			break
		}
	}

	response := map[string]string{"status": string(status)}
	w.Header().Set("Content-Type", "application/json")

	if status == StatusThrottled {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := make(map[string]provider.HealthStatus, len(s.providers))
	for _, p := range s.providers {
		report[p.GetName()] = p.GetHealth()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
