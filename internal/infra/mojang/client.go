// Package mojang resolves usernames to account ids and fetches name history
// from the Mojang directory API.
package mojang

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/rpc/provider"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 16

	serviceLabel = "Mojang API"
)

// Identity is a resolved account.
type Identity struct {
	ID   uuid.UUID
	Name string
}

// NameRecord is one entry of an account's name history.
type NameRecord struct {
	Name        string `json:"name"`
	ChangedToAt int64  `json:"changedToAt,omitempty"`
}

// Resolver defines the directory operations used by the checker.
type Resolver interface {
	Resolve(ctx context.Context, username string) (*Identity, error)
	NameHistory(ctx context.Context, id uuid.UUID) ([]NameRecord, error)
}

// Client provides access to the Mojang directory API.
type Client struct {
	p *provider.HTTPProvider
}

var _ Resolver = (*Client)(nil)

// New creates a Mojang client rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...provider.Option) *Client {
	return &Client{p: provider.NewHTTPProvider("mojang", serviceLabel, baseURL, timeout, opts...)}
}

// Provider exposes the underlying transport for health reporting.
func (c *Client) Provider() *provider.HTTPProvider {
	return c.p
}

// ValidUsername reports whether a username has an acceptable length,
// counted in characters.
func ValidUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= MinUsernameLength && n <= MaxUsernameLength
}

// Resolve looks up the account id and canonical name for a username.
func (c *Client) Resolve(ctx context.Context, username string) (*Identity, error) {
	resp, err := c.p.Get(ctx, provider.Operation{
		Name: "resolve",
		Path: "/users/profiles/minecraft/" + url.PathEscape(username),
	})
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureNotFound,
			Status:  resp.StatusCode,
			Reason:  "Username doesn't exist",
		}
	default:
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureUnexpected,
			Status:  resp.StatusCode,
			Reason:  fmt.Sprintf("Mojang API error: %d", resp.StatusCode),
		}
	}

	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureUnexpected,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("parse profile: %w", err),
		}
	}

	id, err := uuid.Parse(strings.TrimSpace(payload.ID))
	if err != nil {
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureUnexpected,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("parse account id %q: %w", payload.ID, err),
		}
	}

	return &Identity{ID: id, Name: payload.Name}, nil
}

// NameHistory returns the name history for an account, oldest first.
func (c *Client) NameHistory(ctx context.Context, id uuid.UUID) ([]NameRecord, error) {
	resp, err := c.p.Get(ctx, provider.Operation{
		Name: "name_history",
		Path: "/user/profiles/" + Undashed(id) + "/names",
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureUnexpected,
			Status:  resp.StatusCode,
			Reason:  fmt.Sprintf("Error fetching name history: %d", resp.StatusCode),
		}
	}

	var history []NameRecord
	if err := json.Unmarshal(resp.Body, &history); err != nil {
		return nil, &provider.CallError{
			Service: serviceLabel,
			Kind:    domain.FailureUnexpected,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("parse name history: %w", err),
		}
	}
	return history, nil
}

// NameChanged reports whether the account was renamed away from the
// username that was looked up.
func NameChanged(history []NameRecord, currentName, username string) bool {
	return len(history) > 1 && !strings.EqualFold(currentName, username)
}

// Undashed formats an account id the way the Mojang and Hypixel APIs expect.
func Undashed(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}
