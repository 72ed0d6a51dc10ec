// Package analysis talks to the remote dependency analysis service.
//
// The service exposes one endpoint:
//
//	POST /analyze
//	{"owner": "acme", "repo": "widget", "github_url": "https://github.com/acme/widget"}
//
// A 2xx answer carries a [Result]. Any other status is an error; its body
// should be {"error": "..."}.
//
// [Client.Analyze] makes exactly one call per invocation: no retries, no
// caching, no backoff. Failures come back as structured errors so callers
// can tell a rejected request from a broken connection:
//
//	res, err := client.Analyze(ctx, req)
//	switch {
//	case errors.Is(err, errors.ErrCodeService):
//	    // the service answered with an error; errors.UserMessage(err) is its message
//	case err != nil:
//	    // transport failure: unreachable service or unreadable body
//	}
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/depview/pkg/buildinfo"
	"github.com/matzehuels/depview/pkg/errors"
	"github.com/matzehuels/depview/pkg/observability"
)

// AnalyzePath is the service endpoint path.
const AnalyzePath = "/analyze"

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 32 << 20

// Client issues analysis calls against one service.
type Client struct {
	http    *http.Client
	baseURL string
	headers map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each call. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithHeader adds a header sent with every call.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient creates a client for the service at baseURL (scheme and host,
// optionally a path prefix).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   buildinfo.UserAgent(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service URL the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Analyze requests the analysis of one repository.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	endpoint := c.baseURL + AnalyzePath
	host, path := splitURL(endpoint)
	hooks := observability.HTTP()

	body, err := json.Marshal(payload{Owner: req.Owner, Repo: req.Repo, GitHubURL: req.SourceURL})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "build request for %s", endpoint)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if req.ID != "" {
		httpReq.Header.Set("X-Request-ID", req.ID)
	}

	hooks.OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "POST %s", endpoint)
	}
	defer resp.Body.Close()

	data, err := readBody(resp.Body)
	hooks.OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "read response from %s", endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serviceError(resp.StatusCode, data)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "decode response from %s", endpoint)
	}
	res.normalize()
	return &res, nil
}

// serviceError builds the error for a non-2xx answer, preferring the
// service-supplied message.
func serviceError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return &errors.ServiceError{Status: status, Message: eb.Error}
	}
	return &errors.ServiceError{Status: status, Message: fmt.Sprintf("API error: %d", status)}
}

func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxBodySize)
	}
	return data, nil
}

func splitURL(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw
	}
	return u.Host, u.Path
}
