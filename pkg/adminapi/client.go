// Package adminapi talks to the identity platform's management API.
package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/simple-idm-console/pkg/cache"
	"github.com/tendant/simple-idm-console/pkg/domain"
)

const maxErrorBody = 64 << 10

// APIError is a structured error returned by the management API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("management api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("management api: %d %s", e.Status, e.Message)
}

// TokenSource supplies the bearer token for a request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
}

// Client is a management API client.
type Client struct {
	baseURL    *url.URL
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("management api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid management api base url: %w", err)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    base,
		tokens:     cfg.Tokens,
		httpClient: cfg.HTTPClient,
	}, nil
}

// Fetch GETs api/{key} and returns the raw body. It is the fetcher behind
// the console cache, whose keys are API paths.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return body, nil
}

// RevokeSession revokes one of a user's sessions.
func (c *Client) RevokeSession(ctx context.Context, req domain.RevocationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodDelete, cache.SessionKey(req.UserID, req.SessionID))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	default:
		return decodeError(resp)
	}
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	ref, err := url.Parse("api/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain api token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrSessionNotFound
	}

	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
