// Package hypixel fetches public player profiles from the Hypixel API.
package hypixel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/mojang"
	"github.com/vietddude/rankcheck/internal/infra/rpc/provider"
)

const serviceLabel = "Hypixel API"

// PlayerResponse models the /player payload. Player is nil when the account
// has never joined the server, including when the object is present but empty.
type PlayerResponse struct {
	Success bool                  `json:"success"`
	Cause   string                `json:"cause,omitempty"`
	Player  *domain.PlayerProfile `json:"player"`
}

// Fetcher defines the profile lookup used by the checker.
type Fetcher interface {
	Player(ctx context.Context, id uuid.UUID) (*PlayerResponse, error)
}

// Client provides access to the Hypixel API.
type Client struct {
	apiKey string
	p      *provider.HTTPProvider
}

var _ Fetcher = (*Client)(nil)

// New creates a Hypixel client.
func New(baseURL, apiKey string, timeout time.Duration, opts ...provider.Option) *Client {
	opts = append([]provider.Option{provider.WithRejectForbidden()}, opts...)
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		p:      provider.NewHTTPProvider("hypixel", serviceLabel, baseURL, timeout, opts...),
	}
}

// Provider exposes the underlying transport for health reporting.
func (c *Client) Provider() *provider.HTTPProvider {
	return c.p
}

// Player fetches the profile for an account id. A response with
// success=false is returned as-is; the caller decides how to classify it.
func (c *Client) Player(ctx context.Context, id uuid.UUID) (*PlayerResponse, error) {
	query := url.Values{"uuid": {mojang.Undashed(id)}}
	header := http.Header{}
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
		header.Set("API-Key", c.apiKey)
	}

	resp, err := c.p.Get(ctx, provider.Operation{
		Name:   "player",
		Path:   "/player",
		Query:  query,
		Header: header,
	})
	if err != nil {
		var ce *provider.CallError
		if errors.As(err, &ce) && ce.Kind == domain.FailureUnauthorized {
			ce.Reason = "Invalid API key"
		}
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureUnexpected,
			Status:  resp.StatusCode,
			Reason:  fmt.Sprintf("Hypixel API error: %d", resp.StatusCode),
		}
	}

	var out PlayerResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureUnexpected,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("parse player: %w", err),
		}
	}

	var raw struct {
		Player map[string]json.RawMessage `json:"player"`
	}
	if err := json.Unmarshal(resp.Body, &raw); err == nil && raw.Player != nil && len(raw.Player) == 0 {
		out.Player = nil
	}
	return &out, nil
}
