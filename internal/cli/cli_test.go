package cli

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/rankcheck/internal/core/config"
	"github.com/vietddude/rankcheck/internal/core/domain"
)

func splitHostPort(t *testing.T, raw string) (string, int) {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split %s: %v", u.Host, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("port %s: %v", portStr, err)
	}
	return host, port
}

func TestWriteCounts_SortedCategories(t *testing.T) {
	var buf bytes.Buffer
	writeCounts(&buf, map[string]int{"VIP": 2, "Failed_Lookup": 1, "MVP": 3})

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "Failed_Lookup") || !strings.HasPrefix(lines[3], "VIP") {
		t.Errorf("rows not sorted:\n%s", out)
	}
}

func TestWriteRows(t *testing.T) {
	var buf bytes.Buffer
	writeRows(&buf, []*domain.RunRecord{{
		Username:    "player1",
		Category:    "VIP",
		CurrentName: "player1",
		CheckedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}})

	out := buf.String()
	for _, want := range []string{"USERNAME", "player1", "VIP", "2024-01-02T03:04:05Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFetchProxyIP_InvalidConfig(t *testing.T) {
	cfg := config.Default()

	var stdout, stderr bytes.Buffer
	if err := fetchProxyIP(context.Background(), cfg, &stdout, &stderr); err == nil {
		t.Fatal("expected error for missing proxy host")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should stay empty, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Error:") {
		t.Errorf("stderr missing error line: %q", stderr.String())
	}
}

func TestFetchProxyIP_ThroughProxy(t *testing.T) {
	// An http proxy receives the absolute-form request and answers it itself.
	var seen string
	px := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.String()
		_, _ = w.Write([]byte("203.0.113.7\n"))
	}))
	defer px.Close()

	host, port := splitHostPort(t, px.URL)
	cfg := config.Default()
	cfg.Proxy.Scheme = "http"
	cfg.Proxy.Host = host
	cfg.Proxy.Port = port
	cfg.Proxy.IPServiceURL = "http://ip.example.test/"
	cfg.Proxy.Timeout = 5 * time.Second

	var stdout, stderr bytes.Buffer
	if err := fetchProxyIP(context.Background(), cfg, &stdout, &stderr); err != nil {
		t.Fatalf("fetch failed: %v\n%s", err, stderr.String())
	}

	if stdout.String() != "203.0.113.7\n" {
		t.Errorf("Expected bare IP on stdout, got %q", stdout.String())
	}
	if seen != "http://ip.example.test/" {
		t.Errorf("proxy saw %q", seen)
	}
	for _, want := range []string{"Proxy IP Fetcher", "Connecting...", "Success! Your public IPv4 address is: 203.0.113.7"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr.String())
		}
	}
}

func TestFetchProxyIP_StatusFailure(t *testing.T) {
	px := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer px.Close()

	host, port := splitHostPort(t, px.URL)
	cfg := config.Default()
	cfg.Proxy.Scheme = "http"
	cfg.Proxy.Host = host
	cfg.Proxy.Port = port
	cfg.Proxy.IPServiceURL = "http://ip.example.test/"

	var stdout, stderr bytes.Buffer
	if err := fetchProxyIP(context.Background(), cfg, &stdout, &stderr); err == nil {
		t.Fatal("expected error")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should stay empty, got %q", stdout.String())
	}
	for _, want := range []string{"IP service returned status code 502", "Failed to retrieve IP address"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr.String())
		}
	}
}
