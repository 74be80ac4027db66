// Package youtubeapi talks to YouTube's internal web API ("innertube") for the
// single purpose of following a live chat. It fetches watch pages, posts
// get_live_chat requests, and declares the wire types those calls exchange.
// Parsing and normalization live in package chat.
package youtubeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	liveChatPath = "/youtubei/v1/live_chat/get_live_chat"

	// DefaultUserAgent mimics a desktop browser; innertube serves a reduced page otherwise.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	maxErrorBody = 512
)

// StatusError is returned when innertube answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("innertube request failed: %s", e.Status)
	}
	return fmt.Sprintf("innertube request failed: %s: %s", e.Status, e.Body)
}

// Client fetches watch pages and live chat batches.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// NewHTTPClient returns an http.Client with the given timeout whose transport
// is instrumented for tracing.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

// FetchWatchPage GETs the watch page at watchURL and returns the body as text.
func (c *Client) FetchWatchPage(ctx context.Context, watchURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return "", fmt.Errorf("build watch page request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetLiveChat posts one get_live_chat request and returns the raw response body.
func (c *Client) GetLiveChat(ctx context.Context, apiKey string, body GetLiveChatBody) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode live chat body: %w", err)
	}
	endpoint := strings.TrimRight(baseOrDefault(c.BaseURL), "/") + liveChatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build live chat request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent())
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(b))}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return b, nil
}
