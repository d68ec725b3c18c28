package httpapi

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

	"github.com/warehouse-manage/api/internal/repositories"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxErrorBodySize      = 8 * 1024
)

// Client is the shared HTTP transport against the upstream business API. All
// repository implementations in this package go through it so error mapping
// and encoding stay uniform.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

// ClientOptions configures the upstream client.
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the underlying transport, mainly for tests.
	HTTPClient *http.Client
}

// NewClient validates and constructs the upstream business-API client.
func NewClient(opts ClientOptions) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if trimmed == "" {
		return nil, errors.New("httpapi: base url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httpapi: invalid base url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "warehouse-manage-api"
	}

	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		userAgent:  userAgent,
	}, nil
}

// doJSON issues a JSON request and decodes a JSON response into out when out
// is non-nil. Non-2xx responses are mapped to typed upstream errors.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return repositories.NewUpstreamError(op, repositories.UpstreamErrorInvalid, "encode request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return repositories.NewUpstreamError(op, repositories.UpstreamErrorInvalid, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return repositories.NewUpstreamError(op, repositories.UpstreamErrorUnavailable, "request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapStatus(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return repositories.NewUpstreamError(op, repositories.UpstreamErrorUnknown, "decode response", err)
	}
	return nil
}

func (c *Client) mapStatus(op string, resp *http.Response) error {
	message := readErrorMessage(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return repositories.NewUpstreamError(op, repositories.UpstreamErrorNotFound, message, nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return repositories.NewUpstreamError(op, repositories.UpstreamErrorInvalid, message, nil)
	default:
		return repositories.NewUpstreamError(op, repositories.UpstreamErrorUnavailable, message, nil)
	}
}

func readErrorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(raw) == 0 {
		return resp.Status
	}

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if msg := strings.TrimSpace(envelope.Message); msg != "" {
			return msg
		}
		if code := strings.TrimSpace(envelope.Error); code != "" {
			return code
		}
	}
	return resp.Status
}
