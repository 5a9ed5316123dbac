package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/rankcheck/internal/checking/metrics"
	"github.com/vietddude/rankcheck/internal/core/domain"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// HTTPProvider implements Provider for JSON over HTTP GET.
type HTTPProvider struct {
	*BaseProvider

	// label is the human-readable service name used in error reasons
	// (e.g., "Mojang API").
	label      string
	baseURL    string
	userAgent  string
	httpClient *http.Client

	// rejectForbidden maps a 403 onto FailureUnauthorized.
	rejectForbidden bool
}

var _ Provider = (*HTTPProvider)(nil)

// Option configures an HTTPProvider.
type Option func(*HTTPProvider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *HTTPProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(p *HTTPProvider) {
		p.userAgent = ua
	}
}

// WithRejectForbidden treats a 403 reply as rejected credentials and marks
// the provider blocked. Without it a 403 is returned like any other status.
func WithRejectForbidden() Option {
	return func(p *HTTPProvider) {
		p.rejectForbidden = true
	}
}

// NewHTTPProvider creates a new HTTP-based provider.
func NewHTTPProvider(name, label, baseURL string, timeout time.Duration, opts ...Option) *HTTPProvider {
	p := &HTTPProvider{
		BaseProvider: NewBaseProvider(name),
		label:        label,
		baseURL:      strings.TrimRight(baseURL, "/"),
		userAgent:    "rankcheck/1.0",
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get performs the operation. A 429 reply (and a 403 under
// WithRejectForbidden) and transport failures are returned as *CallError;
// every other status is returned as a Response.
func (p *HTTPProvider) Get(ctx context.Context, op Operation) (*Response, error) {
	start := time.Now()

	target := p.baseURL + op.Path
	if len(op.Query) > 0 {
		target += "?" + op.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		p.RecordFailure()
		return nil, p.fail(op, &CallError{Service: p.label, Kind: domain.FailureUnexpected, Err: fmt.Errorf("create request: %w", err)})
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	for key, values := range op.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.RecordFailure()
		return nil, p.fail(op, transportError(p.label, err))
	}
	defer resp.Body.Close()

	latency := time.Since(start)
	metrics.APILatency.WithLabelValues(p.Name, op.Name).Observe(latency.Seconds())
	metrics.APICallsTotal.WithLabelValues(p.Name, op.Name, strconv.Itoa(resp.StatusCode)).Inc()

	// Rate limit detection
	if resp.StatusCode == http.StatusTooManyRequests {
		p.Monitor.RecordThrottle(resp.StatusCode, resp.Header.Get("Retry-After"))
		p.RecordFailure()
		return nil, p.fail(op, &CallError{Service: p.label, Kind: domain.FailureRateLimited, Status: resp.StatusCode})
	}

	// Credential rejection
	if p.rejectForbidden && resp.StatusCode == http.StatusForbidden {
		p.Monitor.RecordThrottle(resp.StatusCode, "")
		p.RecordFailure()
		return nil, p.fail(op, &CallError{Service: p.label, Kind: domain.FailureUnauthorized, Status: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		p.RecordFailure()
		return nil, p.fail(op, transportError(p.label, fmt.Errorf("read response: %w", err)))
	}

	if resp.StatusCode >= 400 {
		p.RecordFailure()
	} else {
		p.RecordSuccess(latency)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body, Latency: latency}, nil
}

func (p *HTTPProvider) fail(op Operation, err *CallError) error {
	metrics.APIErrorsTotal.WithLabelValues(p.Name, op.Name, string(err.Kind)).Inc()
	return err
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
