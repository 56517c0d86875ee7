// Package gotrue is a small client for the hosted authentication REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// ErrInvalidGrant is returned when the service rejects credentials or a
// refresh token.
var ErrInvalidGrant = errors.New("invalid grant")

// Client talks to the /auth/v1 endpoints of the auth service
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a client for the auth service at baseURL, authenticating
// requests with the anonymous api key.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("auth url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid auth url: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ waspweb.AuthClient = (*Client)(nil)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// SignInWithPassword signs in with email and password credentials
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*waspweb.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	return c.token(ctx, "password", body)
}

// RefreshSession exchanges a refresh token for a new session
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*waspweb.Session, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}
	return c.token(ctx, "refresh_token", body)
}

// SignOut revokes the session identified by the access token
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return c.responseError(resp)
}

// AuthorizeURL returns the OAuth authorize URL for provider
func (c *Client) AuthorizeURL(provider, redirectTo, scopes string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}

	params := url.Values{}
	params.Set("provider", provider)
	if redirectTo != "" {
		params.Set("redirect_to", redirectTo)
	}
	if scopes != "" {
		params.Set("scopes", scopes)
	}
	return c.baseURL + "/auth/v1/authorize?" + params.Encode(), nil
}

func (c *Client) token(ctx context.Context, grantType string, body interface{}) (*waspweb.Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	path := "/auth/v1/token?grant_type=" + url.QueryEscape(grantType)
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	session := &waspweb.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		User: waspweb.User{
			ID:    tr.User.ID,
			Email: tr.User.Email,
		},
	}
	switch {
	case tr.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return session, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	return req, nil
}

func (c *Client) responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var er errorResponse
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &er) == nil {
		switch {
		case er.ErrorDescription != "":
			message = er.ErrorDescription
		case er.Message != "":
			message = er.Message
		case er.Error != "":
			message = er.Error
		}
	}

	if er.Error == "invalid_grant" || resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrInvalidGrant, message)
	}
	return fmt.Errorf("auth service error (%s): %s", resp.Status, message)
}
