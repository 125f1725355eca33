// Package restclient implements the storefront backend ports over the
// REST/JSON API served by cmd/api-server.
package restclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/storefront"
	"github.com/xenking/kart-storefront/internal/wire"
)

const maxBodySize = 1 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the API origin, e.g. http://localhost:8080.
	BaseURL string
	// Timeout bounds each request. Zero means 15 seconds.
	Timeout time.Duration
	// Transport is wrapped with OpenTelemetry instrumentation. Nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client talks to the storefront API.
type Client struct {
	base *url.URL
	http *http.Client
	lg   *zap.Logger
}

var _ storefront.Backend = (*Client)(nil)

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(cfg.Transport),
		},
		lg: cfg.Logger,
	}, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   []byte
}

// do sends r and returns the body of a 2xx response. Failures map to the
// storefront error kinds: transport errors to ErrNetwork, non-2xx to
// *storefront.RequestError.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	u := *c.base
	u.Path += r.path
	u.RawQuery = r.query.Encode()

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.lg.Debug("Request failed", zap.String("method", r.method), zap.String("path", r.path), zap.Error(err))
		return nil, errors.Wrapf(storefront.ErrNetwork, "%s %s: %v", r.method, r.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(storefront.ErrNetwork, "read %s %s: %v", r.method, r.path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return b, nil
	}
	return nil, responseError(resp.StatusCode, b)
}

func responseError(status int, body []byte) *storefront.RequestError {
	e := &storefront.RequestError{Status: status, Message: wire.ErrorMessage(body)}
	switch status {
	case http.StatusUnauthorized:
		e.Kind = storefront.ErrUnauthorized
	case http.StatusNotFound:
		e.Kind = storefront.ErrNotFound
	}
	return e
}

// unsupported maps responses meaning "no such endpoint" to ErrUnsupported.
// A 404 carrying a JSON error body is a missing resource, not a missing
// route.
func unsupported(err error) error {
	var re *storefront.RequestError
	if !errors.As(err, &re) {
		return err
	}
	switch {
	case re.Status == http.StatusMethodNotAllowed, re.Status == http.StatusNotImplemented:
	case re.Status == http.StatusNotFound && re.Message == "":
	default:
		return err
	}
	re.Kind = storefront.ErrUnsupported
	return re
}

func decode[T any](b []byte, f func(d *jx.Decoder) (T, error)) (T, error) {
	var v T
	err := wire.Decode(b, func(d *jx.Decoder) error {
		var err error
		v, err = f(d)
		return err
	})
	if err != nil {
		var zero T
		return zero, errors.Wrap(err, "decode response")
	}
	return v, nil
}
