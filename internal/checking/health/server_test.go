package health

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/rankcheck/internal/checking/report"
	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/rpc/provider"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func TestServer_Health(t *testing.T) {
	mojang := provider.NewHTTPProvider("mojang", "Mojang API", "http://127.0.0.1:1", time.Second)
	s := NewServer(":0", []provider.Provider{mojang})

	code, body := get(t, s.Handler(), "/health")
	if code != http.StatusOK || !strings.Contains(body, `"healthy"`) {
		t.Errorf("expected healthy, got %d %s", code, body)
	}

	mojang.Monitor.RecordThrottle(http.StatusTooManyRequests, "60")
	code, body = get(t, s.Handler(), "/health")
	if code != http.StatusServiceUnavailable || !strings.Contains(body, `"throttled"`) {
		t.Errorf("expected throttled, got %d %s", code, body)
	}

	_, body = get(t, s.Handler(), "/health/detailed")
	var detailed map[string]provider.HealthStatus
	if err := json.Unmarshal([]byte(body), &detailed); err != nil {
		t.Fatalf("decode detailed: %v", err)
	}
	if _, ok := detailed["mojang"]; !ok {
		t.Errorf("expected mojang entry, got %v", detailed)
	}
}

func TestServer_MetricsIncludesAggregator(t *testing.T) {
	agg := report.NewAggregator()
	agg.Record(domain.Outcome{Entry: domain.CheckEntry{Username: "abc"}, Category: "MVP"}, false)

	s := NewServer(":0", nil, agg.Registry())
	code, body := get(t, s.Handler(), "/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, `rankcheck_category_total{category="MVP"} 1`) {
		t.Errorf("aggregator series missing from /metrics:\n%s", body)
	}
}
