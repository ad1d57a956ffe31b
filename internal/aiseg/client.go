// Package aiseg implements the HTTP fetcher (C1) that talks to the AiSEG2
// home energy controller: digest-authenticated GETs of known pages, with a
// per-request timeout and connection pooling shared across collectors.
package aiseg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/icholy/digest"

	aisegerrors "github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/errors"
)

const defaultTimeout = 10 * time.Second

// Client fetches AiSEG2 pages over HTTP digest auth. It wraps a single
// shared http.Client so connections are pooled across every collector,
// per spec §4.1 and §5. Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client. baseURL should not have a trailing slash;
// paths passed to Fetch are appended directly.
func NewClient(baseURL, user, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &digest.Transport{
		Username: user,
		Password: password,
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Fetch issues an authenticated GET to {baseURL}{path} and returns the
// response body. Non-2xx responses and network/timeout failures are
// classified into the collector error taxonomy; callers supply their own
// collectorID and op name for error context.
func (c *Client) Fetch(ctx context.Context, collectorID, op, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, aisegerrors.NewFetchError(collectorID, op, 0, err)
	}
	req.Header.Set("User-Agent", "aiseg2-influxdb2-forwarder")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, aisegerrors.NewTimeoutError(collectorID, op, err)
		}
		return nil, aisegerrors.NewFetchError(collectorID, op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aisegerrors.NewFetchError(collectorID, op, resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, aisegerrors.NewAuthError(collectorID, op, resp.StatusCode, fmt.Errorf("device returned %s", resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, aisegerrors.NewFetchError(collectorID, op, resp.StatusCode, fmt.Errorf("device returned %s", resp.Status))
	}

	return body, nil
}
