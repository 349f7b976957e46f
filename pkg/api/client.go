// Package api implements the authenticated HTTP client for the Biblib
// library API: scoped verb wrappers with optimistic-concurrency support,
// cursor-following pagination, and server-directed rate-limit backoff.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bibkit/bibkit/pkg/secrets"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.biblib.dev"

// Protocol headers.
const (
	headerAPIKey       = "Biblib-API-Key"
	headerAPIVersion   = "Biblib-API-Version"
	headerBackoff      = "Backoff"
	headerTotalResults = "Total-Results"
	headerIfUnmodified = "If-Unmodified-Since-Version"
)

const apiVersion = "3"

// Client issues authenticated requests against the library API. It is
// built once per invocation; the key, scope, and fixed headers are
// read-only afterwards.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	scope      Scope
	sleep      func(time.Duration)
	redactor   *secrets.Redactor
	onPage     func(page int)
}

// Config configures a Client. Zero fields get sensible defaults; Sleep and
// OnPage exist so tests can observe backoff and pagination without real
// wall time.
type Config struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	Scope      Scope
	HTTPClient *http.Client
	Sleep      func(time.Duration)
	Redactor   *secrets.Redactor
	OnPage     func(page int)
}

// New creates a client from config.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "bibkit"
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	redactor := cfg.Redactor
	if redactor == nil {
		redactor = secrets.NewRedactor(cfg.APIKey)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		userAgent:  userAgent,
		scope:      cfg.Scope,
		sleep:      sleep,
		redactor:   redactor,
		onPage:     cfg.OnPage,
	}
}

// Response is one decoded-on-demand HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Version returns the Last-Modified-Version response header, or 0 when the
// server did not send one.
func (r *Response) Version() int {
	n, _ := strconv.Atoi(r.Header.Get("Last-Modified-Version"))
	return n
}

// GetOptions controls a single GET.
type GetOptions struct {
	// Scoped prefixes the path with the resolved /users/{id} or
	// /groups/{id} namespace.
	Scoped bool
	// Params are serialized as a query string; a key with several values
	// is appended as repeated key=value pairs in array order.
	Params url.Values
}

// Get issues one GET and returns the response.
func (c *Client) Get(ctx context.Context, path string, opts GetOptions) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.url(path, opts.Scoped, opts.Params), nil, nil)
}

// Count issues a GET for the collection at path and returns the
// Total-Results header without materializing the page body.
func (c *Client) Count(ctx context.Context, path string, params url.Values) (int, error) {
	limited := url.Values{}
	for k, vs := range params {
		limited[k] = vs
	}
	limited.Set("limit", "1")

	resp, err := c.Get(ctx, path, GetOptions{Scoped: true, Params: limited})
	if err != nil {
		return 0, err
	}
	total := resp.Header.Get(headerTotalResults)
	if total == "" {
		return 0, fmt.Errorf("response carries no %s header", headerTotalResults)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("malformed %s header %q", headerTotalResults, total)
	}
	return n, nil
}

// Post issues a scoped POST with a JSON body and optional extra headers.
func (c *Client) Post(ctx context.Context, path string, body any, extra map[string]string) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	for k, v := range extra {
		headers.Set(k, v)
	}
	return c.do(ctx, http.MethodPost, c.url(path, true, nil), bytes.NewReader(payload), headers)
}

// Put issues a scoped PUT replacing the resource at path.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	return c.do(ctx, http.MethodPut, c.url(path, true, nil), bytes.NewReader(payload), headers)
}

// Patch issues a scoped partial update. When expectedVersion is positive it
// is sent as the If-Unmodified-Since-Version precondition; a concurrent
// writer then surfaces as ConflictError instead of a silent overwrite.
func (c *Client) Patch(ctx context.Context, path string, body any, expectedVersion int) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if expectedVersion > 0 {
		headers.Set(headerIfUnmodified, strconv.Itoa(expectedVersion))
	}
	return c.do(ctx, http.MethodPatch, c.url(path, true, nil), bytes.NewReader(payload), headers)
}

// Delete issues a scoped DELETE with the same version precondition
// semantics as Patch.
func (c *Client) Delete(ctx context.Context, path string, expectedVersion int) (*Response, error) {
	headers := http.Header{}
	if expectedVersion > 0 {
		headers.Set(headerIfUnmodified, strconv.Itoa(expectedVersion))
	}
	return c.do(ctx, http.MethodDelete, c.url(path, true, nil), nil, headers)
}

// KeyInfo describes the API key's owner and grants, as reported by the
// key-info endpoint.
type KeyInfo struct {
	Key      string          `json:"key"`
	UserID   int             `json:"userID"`
	Username string          `json:"username"`
	Access   json.RawMessage `json:"access,omitempty"`
}

// CurrentKey fetches the key-info record for the client's API key. The
// endpoint is not library-scoped.
func (c *Client) CurrentKey(ctx context.Context) (*KeyInfo, error) {
	resp, err := c.Get(ctx, "/keys/current", GetOptions{})
	if err != nil {
		return nil, err
	}
	var info KeyInfo
	if err := resp.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CurrentKeyUserID resolves the numeric user id owning apiKey. Used by
// configuration resolution when user-id is given as the sentinel 0.
func CurrentKeyUserID(ctx context.Context, baseURL, apiKey string, httpClient *http.Client) (int, error) {
	c := New(Config{BaseURL: baseURL, APIKey: apiKey, HTTPClient: httpClient})
	info, err := c.CurrentKey(ctx)
	if err != nil {
		return 0, err
	}
	return info.UserID, nil
}

// url assembles base URL, optional scope prefix, path, and query string.
func (c *Client) url(path string, scoped bool, params url.Values) string {
	full := c.baseURL
	if scoped {
		full += c.scope.Prefix()
	}
	full += "/" + strings.TrimPrefix(path, "/")
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	return full
}

// do executes one request with the fixed auth and protocol headers applied.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, extra http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerAPIVersion, apiVersion)
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
	for key, values := range extra {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.redactor.Redact(rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusPreconditionFailed {
		return nil, &ConflictError{Status: resp.StatusCode, Body: c.redactor.Redact(string(data))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Status: resp.StatusCode, Body: c.redactor.Redact(string(data))}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
