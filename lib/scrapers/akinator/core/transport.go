package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Request is a single round trip to the service. Endpoint is either an
// absolute URL or a path joined onto the client's base url.
type Request struct {
	Method          string
	Endpoint        string
	Form            map[string]string
	FollowRedirects bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// OK reports a status code in [200, 400).
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// Transport is what the game core needs from the network, it is
// implemented by *Client and by fakes in tests.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// TransportError is a network or HTTP level failure.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError builds the TransportError for a reply with a failing status.
func StatusError(req Request, res *Response) *TransportError {
	return &TransportError{
		Method:     req.Method,
		URL:        req.Endpoint,
		StatusCode: res.StatusCode,
	}
}
