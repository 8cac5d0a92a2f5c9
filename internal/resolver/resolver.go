// Package resolver translates a share URL into a direct media URL through an
// external HTTP API. The API's response shape is undocumented and has changed
// between deployments, so extraction is a precedence of known field names
// followed by a best-effort scan of the whole JSON document.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"terabox-relay-bot/internal/logger"
)

// ErrUnresolvable covers every resolver failure the end user should see:
// transport errors, bad status, non-JSON bodies, and responses with no
// candidate URL. Callers must not guess a URL when it is returned.
var ErrUnresolvable = errors.New("share link could not be resolved")

// Resolver is the narrow seam between orchestration and the extraction
// heuristic, so the heuristic can change without touching callers.
type Resolver interface {
	Resolve(ctx context.Context, shareURL string) (string, error)
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: httpClient}
}

// Resolve issues a single GET with the share URL as a query parameter and
// extracts a direct media URL from the JSON response.
func (c *Client) Resolve(ctx context.Context, shareURL string) (string, error) {
	reqURL, err := c.buildURL(shareURL)
	if err != nil {
		return "", fmt.Errorf("build resolver url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build resolver request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn.Printf("resolver request failed: %v", err)
		return "", ErrUnresolvable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn.Printf("resolver returned status %d for %s", resp.StatusCode, shareURL)
		return "", ErrUnresolvable
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		logger.Warn.Printf("resolver body read failed: %v", err)
		return "", ErrUnresolvable
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		logger.Warn.Printf("resolver returned non-JSON body (%d bytes)", len(body))
		return "", ErrUnresolvable
	}

	direct := ExtractMediaURL(doc)
	if direct == "" {
		logger.Warn.Printf("resolver response had no media URL candidate for %s", shareURL)
		return "", ErrUnresolvable
	}
	return direct, nil
}

func (c *Client) buildURL(shareURL string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", shareURL)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
