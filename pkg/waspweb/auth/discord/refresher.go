// Package discord asks the site API to re-sync a user's Discord roles.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Refresher calls GET {API_URL}/discord/refresh/{discord_id}
type Refresher struct {
	baseURL    string
	httpClient *http.Client
}

// RefresherOption is a functional option for configuring a Refresher
type RefresherOption func(*Refresher)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) RefresherOption {
	return func(r *Refresher) {
		r.httpClient = client
	}
}

// NewRefresher creates a Refresher for the API at baseURL
func NewRefresher(baseURL string, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh triggers a role refresh for the Discord user
func (r *Refresher) Refresh(ctx context.Context, discordID string) error {
	if discordID == "" {
		return errors.New("discord id is required")
	}

	endpoint := r.baseURL + "/discord/refresh/" + url.PathEscape(discordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord refresh failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord refresh failed with status: %s", resp.Status)
	}
	return nil
}
