package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Decorator transforms an outbound request. It must not modify the request
// it receives; when it changes anything it returns a clone.
type Decorator interface {
	Decorate(req *http.Request) *http.Request
}

// DecoratorFunc adapts a function to Decorator.
type DecoratorFunc func(req *http.Request) *http.Request

// Decorate calls f(req).
func (f DecoratorFunc) Decorate(req *http.Request) *http.Request {
	return f(req)
}

// Chain returns a RoundTripper that passes each request through decorators
// in order before handing it to next. A nil next uses http.DefaultTransport.
func Chain(next http.RoundTripper, decorators ...Decorator) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &chain{next: next, decorators: decorators}
}

type chain struct {
	next       http.RoundTripper
	decorators []Decorator
}

func (c *chain) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, d := range c.decorators {
		req = d.Decorate(req)
	}
	return c.next.RoundTrip(req)
}

// WithHeader returns a clone of req with key set to value.
func WithHeader(req *http.Request, key, value string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set(key, value)
	return out
}

// UserAgent sets the User-Agent header when the request has none.
func UserAgent(ua string) Decorator {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		ua = DefaultUserAgent
	}
	return DecoratorFunc(func(req *http.Request) *http.Request {
		if req.Header.Get("User-Agent") != "" {
			return req
		}
		return WithHeader(req, "User-Agent", ua)
	})
}

// AcceptJSON asks for JSON unless the caller chose something else.
func AcceptJSON() Decorator {
	return DecoratorFunc(func(req *http.Request) *http.Request {
		if req.Header.Get("Accept") != "" {
			return req
		}
		return WithHeader(req, "Accept", "application/json")
	})
}

// RequestID tags requests with a random UUID. An existing ID is kept, so a
// replayed request reports the same ID as its first attempt.
func RequestID() Decorator {
	return DecoratorFunc(func(req *http.Request) *http.Request {
		if req.Header.Get(RequestIDHeader) != "" {
			return req
		}
		return WithHeader(req, RequestIDHeader, uuid.NewString())
	})
}
