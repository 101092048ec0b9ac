// Package transport is the HTTP boundary for authority discovery and token
// endpoint exchanges. Callers hand it a URL and form parameters and get back
// either a parsed response or a structured OAuth failure; nothing above this
// package touches net/http.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is the consumed transport interface.
type Client interface {
	// PostForm sends a form-encoded POST to the token endpoint. A non-2xx
	// response parses into a *OAuthError.
	PostForm(ctx context.Context, endpoint string, form url.Values) (*TokenResponse, error)
	// PostFormJSON sends a form-encoded POST and decodes the success body
	// into out (device authorization requests).
	PostFormJSON(ctx context.Context, endpoint string, form url.Values, out any) error
	// GetJSON fetches and decodes a JSON document (authority discovery).
	GetJSON(ctx context.Context, rawURL string, out any) error
}

// HTTPClient is the production Client backed by net/http.
type HTTPClient struct {
	hc     *http.Client
	logger *zap.Logger
}

// NewHTTPClient is the constructor for HTTPClient. A nil http.Client gets a
// default with a sane timeout.
func NewHTTPClient(hc *http.Client, logger *zap.Logger) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{hc: hc, logger: logger}
}

func (c *HTTPClient) PostForm(ctx context.Context, endpoint string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseOAuthError(resp, body)
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	c.logger.Debug("token endpoint exchange succeeded", zap.Int("status", resp.StatusCode))
	return &tr, nil
}

func (c *HTTPClient) PostFormJSON(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseOAuthError(resp, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("discovery request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read discovery response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseOAuthError(resp, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse discovery response: %w", err)
	}
	return nil
}

func parseOAuthError(resp *http.Response, body []byte) *OAuthError {
	oe := &OAuthError{
		StatusCode: resp.StatusCode,
		Body:       body,
	}
	// Best effort: error bodies are usually JSON but transient failures from
	// proxies may be anything.
	_ = json.Unmarshal(body, oe)
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			oe.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return oe
}
