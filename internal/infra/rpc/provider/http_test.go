package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

func TestHTTPProvider_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/profiles/minecraft/notch" {
			t.Errorf("expected path /users/profiles/minecraft/notch, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("API-Key"); got != "k" {
			t.Errorf("expected API-Key header k, got %q", got)
		}
		if got := r.URL.Query().Get("uuid"); got != "abc" {
			t.Errorf("expected uuid=abc, got %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("mojang", "Mojang API", server.URL+"/", 5*time.Second)

	resp, err := p.Get(context.Background(), Operation{
		Name:   "resolve",
		Path:   "/users/profiles/minecraft/notch",
		Query:  map[string][]string{"uuid": {"abc"}},
		Header: http.Header{"API-Key": {"k"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if len(resp.Body) == 0 {
		t.Errorf("expected body")
	}
	if !p.IsAvailable() {
		t.Errorf("expected provider to be available")
	}
}

func TestHTTPProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewHTTPProvider("mojang", "Mojang API", server.URL, 5*time.Second)

	_, err := p.Get(context.Background(), Operation{Name: "resolve", Path: "/x"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err.Error() != "Rate limited by Mojang API" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	var ce *CallError
	if !errors.As(err, &ce) || ce.Kind != domain.FailureRateLimited || ce.Status != http.StatusTooManyRequests {
		t.Errorf("expected rate_limited call error, got %#v", err)
	}

	stats := p.Monitor.GetStats()
	if stats.ThrottleCount429 != 1 {
		t.Errorf("expected 1 throttle, got %d", stats.ThrottleCount429)
	}
	if stats.Status != StatusThrottled {
		t.Errorf("expected throttled status, got %s", stats.Status)
	}
	if stats.RetryAfter <= 0 || stats.RetryAfter > 30*time.Second {
		t.Errorf("unexpected retry after: %v", stats.RetryAfter)
	}
}

func TestHTTPProvider_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	p := NewHTTPProvider("hypixel", "Hypixel API", server.URL, 5*time.Second, WithRejectForbidden())

	_, err := p.Get(context.Background(), Operation{Name: "player", Path: "/player"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if p.IsAvailable() {
		t.Errorf("expected provider blocked after a rejected key")
	}
}

func TestHTTPProvider_ForbiddenPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	p := NewHTTPProvider("mojang", "Mojang API", server.URL, 5*time.Second)

	resp, err := p.Get(context.Background(), Operation{Name: "resolve", Path: "/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
	if !p.IsAvailable() {
		t.Errorf("a plain 403 must not block the provider")
	}
}

func TestHTTPProvider_ServerErrorIsNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"success":false,"cause":"Key throttle"}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("hypixel", "Hypixel API", server.URL, 5*time.Second, WithRejectForbidden())

	resp, err := p.Get(context.Background(), Operation{Name: "player", Path: "/player"})
	if err != nil {
		t.Fatalf("expected the 503 to be returned as a response, got %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestHTTPProvider_OtherStatusReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p := NewHTTPProvider("mojang", "Mojang API", server.URL, 5*time.Second)

	resp, err := p.Get(context.Background(), Operation{Name: "resolve", Path: "/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestHTTPProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := NewHTTPProvider("mojang", "Mojang API", server.URL, 50*time.Millisecond)

	_, err := p.Get(context.Background(), Operation{Name: "resolve", Path: "/slow"})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if err.Error() != "Mojang API timeout" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestHTTPProvider_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewHTTPProvider("hypixel", "Hypixel API", url, time.Second)

	_, err := p.Get(context.Background(), Operation{Name: "player", Path: "/player"})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if err.Error() != "Connection error to Hypixel API" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
