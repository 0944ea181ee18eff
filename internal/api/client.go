package api

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
)

const (
	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL   = "http://localhost:8080/api"
	DefaultUserAgent = "rollcall/0.1"
	DefaultTimeout   = 10 * time.Second

	maxErrorBody = 64 << 10
)

// Client talks to the attendance backend and unwraps its JSON envelope.
// It applies no auth policy itself; that lives in the transport it is given.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Request describes one call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	// Body is JSON-encoded when non-nil.
	Body any
}

// NewClient builds a Client for baseURL. A nil httpClient uses a plain
// client with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: base, http: httpClient}, nil
}

// BaseURL returns a copy of the normalized base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Get issues a GET and decodes envelope data into dest.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, dest)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, dest)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, dest)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, dest)
}

// Do executes req. Non-2xx responses and envelopes whose status is not
// "success" come back as *StatusError; network failures wrap ErrTransport.
func (c *Client) Do(ctx context.Context, req Request, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: execute request: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	path := "/" + strings.TrimLeft(req.Path, "/")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(req.Method, path, resp)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.OK() {
		return &StatusError{
			Method:     req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     env.Status,
			Message:    env.Reason(),
		}
	}
	if dest == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	reqURL := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		reqURL.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		// bytes.Reader lets net/http set GetBody, which the auth layer needs
		// to replay the request.
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
