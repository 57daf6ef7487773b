package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jiratool/jiratool/internal/debug"
)

// Gateway issues authenticated REST calls. path is relative to the instance
// URL (e.g. "rest/api/3/project"). A non-nil out receives the decoded JSON
// response. Non-2xx responses are returned as *APIError.
type Gateway interface {
	Get(ctx context.Context, path string, params url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
}

// Client provides HTTP access to a Jira instance.
type Client struct {
	URL        string
	Username   string // account email; empty selects Bearer (PAT) auth
	APIToken   string
	UserAgent  string
	HTTPClient *http.Client

	// MaxRetries bounds how often a 429 or 503 response is retried. Zero,
	// the default, disables retrying.
	MaxRetries uint64
	// RetryInterval is the first wait of the exponential retry schedule.
	RetryInterval time.Duration
}

var _ Gateway = (*Client)(nil)

// NewClient creates a new Jira client.
func NewClient(baseURL, username, apiToken string) *Client {
	return &Client{
		URL:       strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		Username:  username,
		APIToken:  apiToken,
		UserAgent: "jiratool",
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
	}
}

// WithTimeout sets the HTTP client timeout. Zero or negative values keep the
// current timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.HTTPClient.Timeout = d
	}
	return c
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	path = strings.TrimLeft(path, "/")
	apiURL := c.URL + "/" + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
	}

	var respBody []byte
	op := func() error {
		var err error
		respBody, err = c.doRequest(ctx, method, path, apiURL, data)
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		debug.Logf("jira: %v; retrying in %s\n", err, wait.Round(time.Millisecond))
	}
	if err := backoff.RetryNotify(op, c.retryBackOff(ctx), notify); err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) retryBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	if c.RetryInterval > 0 {
		bo.InitialInterval = c.RetryInterval
	}
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, c.MaxRetries), ctx)
}

// isRetryable reports rate limiting and temporary unavailability.
func isRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusServiceUnavailable
}

// doRequest executes an authenticated HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path, apiURL string, body []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	debug.Logf("jira: %s %s\n", method, apiURL)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// PUT returns 204 No Content on success
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		debug.Logf("jira: API error response (%d): %s\n", resp.StatusCode, string(respBody))
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Messages:   parseErrorMessages(respBody),
		}
	}

	return respBody, nil
}

// setAuth uses Basic auth (email:token) when a username is configured, which
// is what Jira Cloud requires, and a Bearer personal access token otherwise.
func (c *Client) setAuth(req *http.Request) {
	if c.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.APIToken))
		req.Header.Set("Authorization", "Basic "+auth)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
}
