// Package httptransport implements client.Transport over net/http.
package httptransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/catalog/client"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerRequestID     = "X-Request-ID"
	bearerPrefix        = "Bearer "
	contentTypeJSON     = "application/json"
	apiPrefix           = "/api/"
	defaultTimeout      = 30 * time.Second
	maxResponseBytes    = 8 << 20
)

var (
	// ErrInvalidBaseURL is returned when the base URL is empty or not absolute.
	ErrInvalidBaseURL = errors.New("base url must be an absolute http(s) url")

	// ErrNilHTTPClient is returned when WithHTTPClient is given nil.
	ErrNilHTTPClient = errors.New("http client must not be nil")

	// ErrInvalidTimeout is returned when WithTimeout is given a non-positive duration.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrBuildingRequestFailed is returned when the http request cannot be built.
	ErrBuildingRequestFailed = errors.New("building http request failed")

	// ErrReadingResponseFailed is returned when the response body cannot be read.
	ErrReadingResponseFailed = errors.New("reading http response failed")

	// ErrResponseTooLarge is returned when the response body exceeds the configured limit.
	ErrResponseTooLarge = errors.New("http response body too large")

	// ErrInvalidMaxResponseBytes is returned when WithMaxResponseBytes is given a non-positive limit.
	ErrInvalidMaxResponseBytes = errors.New("max response bytes must be positive")
)

// Transport sends catalog requests over HTTP to {base}/api/{books|actions|auth}.
type Transport struct {
	base       *url.URL
	identity   catalog.Identity
	httpClient *http.Client
	maxBody    int64
	requestID  func() string
}

// Option defines a functional option for configuring the Transport.
type Option func(*Transport) error

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(t *Transport) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}

		t.httpClient = httpClient

		return nil
	}
}

// WithTimeout sets the request timeout. A client given through WithHTTPClient is copied, not changed.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transport) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}

		withTimeout := *t.httpClient
		withTimeout.Timeout = timeout
		t.httpClient = &withTimeout

		return nil
	}
}

// WithMaxResponseBytes limits how much of a response body is read (default 8 MiB).
func WithMaxResponseBytes(limit int64) Option {
	return func(t *Transport) error {
		if limit <= 0 {
			return ErrInvalidMaxResponseBytes
		}

		t.maxBody = limit

		return nil
	}
}

// New creates a Transport. identity may be nil for unauthenticated use, e.g. login only.
func New(baseURL string, identity catalog.Identity, opts ...Option) (*Transport, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, errors.Join(ErrInvalidBaseURL, fmt.Errorf("got %q", baseURL))
	}

	t := &Transport{
		base:       base,
		identity:   identity,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxBody:    maxResponseBytes,
		requestID:  func() string { return uuid.NewString() },
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Do implements client.Transport.
func (t *Transport) Do(ctx context.Context, req client.Request) (client.Response, error) {
	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return client.Response{}, err
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return client.Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return client.Response{}, errors.Join(ErrReadingResponseFailed, err)
	}

	if int64(len(body)) > t.maxBody {
		return client.Response{}, errors.Join(ErrResponseTooLarge, fmt.Errorf("more than %d bytes", t.maxBody))
	}

	return client.Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// URL resolves the absolute URL of req. req.Path may carry escaped segments.
func (t *Transport) URL(req client.Request) string {
	prefix := t.base.Path + apiPrefix + string(req.Endpoint)

	u := *t.base
	u.Path = prefix + req.Path
	u.RawPath = ""

	if unescaped, err := url.PathUnescape(req.Path); err == nil && unescaped != req.Path {
		u.Path = prefix + unescaped
		u.RawPath = prefix + req.Path
	}

	u.RawQuery = req.Query.Encode()

	return u.String()
}

func (t *Transport) newRequest(ctx context.Context, req client.Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.URL(req), body)
	if err != nil {
		return nil, errors.Join(ErrBuildingRequestFailed, err)
	}

	httpReq.Header.Set(headerAccept, contentTypeJSON)
	httpReq.Header.Set(headerRequestID, t.requestID())

	if req.Body != nil {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}

	if t.identity != nil {
		if token, ok := t.identity.CurrentToken(); ok {
			httpReq.Header.Set(headerAuthorization, bearerPrefix+token)
		}
	}

	return httpReq, nil
}
