package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"time"

	"akiclient/lib/restyutil"
	"akiclient/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/akinator/core")

const DefaultTimeout = time.Second * 30

var ErrClosed = errors.New("transport is closed")

var defaultHeaders = map[string]string{
	"Accept":           "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":  "en-US,en;q=0.9",
	"User-Agent":       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"X-Requested-With": "XMLHttpRequest",
}

type ClientOptions struct {
	// BaseUrl is optional, requests with absolute endpoints ignore it.
	BaseUrl string
	// Timeout bounds every request, it defaults to DefaultTimeout.
	Timeout time.Duration
	// CloudflareBypass wraps the transport with browser-like TLS and headers.
	CloudflareBypass bool
	// DumpOutput receives a text rendering of every exchange when set.
	DumpOutput restyutil.InstrumentOutput
	Telemetry  telemetry.API
}

// Client is the resty-backed Transport. One client holds one cookie jar
// and one connection pool, it is meant to live as long as a game session.
type Client struct {
	Http   *resty.Client
	closed bool
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	if opts.BaseUrl != "" {
		client.SetBaseURL(opts.BaseUrl)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeaders(defaultHeaders)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.SetTimeout(timeout)

	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.NopAPI{}
	}
	telemetry.InstrumentResty(client, "scrapers/akinator/http", telemetry.NewScopedAPI("core", tel))
	restyutil.InstrumentClient(client, opts.DumpOutput)

	return &Client{Http: client}, nil
}

var noRedirects = resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
})

var followRedirects = resty.FlexibleRedirectPolicy(10)

func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "client:Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("method", req.Method),
		attribute.String("endpoint", req.Endpoint),
	)

	if c.closed {
		span.SetStatus(codes.Error, "transport is closed")
		return nil, &TransportError{Method: req.Method, URL: req.Endpoint, Err: ErrClosed}
	}

	if req.FollowRedirects {
		c.Http.SetRedirectPolicy(followRedirects)
	} else {
		c.Http.SetRedirectPolicy(noRedirects)
	}

	r := c.Http.R().SetContext(ctx)
	if req.Form != nil {
		r.SetFormData(req.Form)
	}

	res, err := r.Execute(req.Method, req.Endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send request")
		return nil, &TransportError{Method: req.Method, URL: req.Endpoint, Err: err}
	}

	return &Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.Body(),
	}, nil
}

// Close releases pooled connections, calling it more than once is a no-op.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.Http.GetClient().CloseIdleConnections()
	return nil
}
