package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 4 << 20
	DefaultUserAgent = "Mozilla/5.0 (compatible; ctxmerge/1.0; +https://github.com/mohammad-safakhou/ctxmerge)"
)

// StatusError is returned for non-2xx responses. Body holds the first few KB.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Request describes one call. Body is sent as-is; use JSON for encoded payloads.
type Request struct {
	Method   string
	URL      string
	Headers  map[string]string
	Body     []byte
	Username string
	Password string
	UseBasic bool
}

// Client wraps http.Client with retries, exponential backoff and a body cap.
type Client struct {
	client    *http.Client
	retries   int
	backoff   time.Duration
	maxBytes  int64
	userAgent string
}

// Option customises a Client.
type Option func(*Client)

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithHTTPClient swaps the underlying transport client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func New(timeout time.Duration, retries int, backoff time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}
	c := &Client{
		client:    &http.Client{Timeout: timeout},
		retries:   retries,
		backoff:   backoff,
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTP exposes the underlying client for libraries that accept one.
func (c *Client) HTTP() *http.Client { return c.client }

// Do performs req and returns the response whatever its status. Transport
// errors, 429 and 5xx are retried with exponential backoff.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var lastErr error
	var last *Response
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		resp, err := c.once(ctx, method, req)
		switch {
		case err != nil:
			lastErr, last = err, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr, last = nil, resp
		default:
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if last != nil {
		return last, nil
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, method string, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("User-Agent", c.userAgent)
	for k, v := range req.Headers {
		hreq.Header.Set(k, v)
	}
	if req.UseBasic {
		hreq.SetBasicAuth(req.Username, req.Password)
	}
	resp, err := c.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Get fetches url and fails with *StatusError on non-2xx.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(resp.Body)}
	}
	return resp.Body, nil
}

// DoJSON encodes body as JSON (when non-nil) and decodes a 2xx response into out.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any, out any) error {
	req := Request{Method: method, URL: url, Headers: map[string]string{"Accept": "application/json"}}
	for k, v := range headers {
		req.Headers[k] = v
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req.Body = b
		if _, ok := req.Headers["Content-Type"]; !ok {
			req.Headers["Content-Type"] = "application/json"
		}
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: snippet(resp.Body)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Body, out)
}

func snippet(b []byte) string {
	const max = 4096
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
