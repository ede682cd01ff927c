package service

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/soialang/soia-go/soia"
)

// ============================================================
// Client
// ============================================================

// Client invokes methods on a remote service over HTTP. Requests retry
// transient transport failures; a non-200 service result is returned as
// an error without retrying.
type Client struct {
	url  string
	http *retryablehttp.Client
}

// NewClient creates a client for the service hosted at url.
func NewClient(url string) *Client {
	c := retryablehttp.NewClient()
	c.Logger = nil
	// A response from the service is final: a 500 means the handler
	// failed, not that the transport flaked. Only retry when no
	// response arrived at all.
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil || resp == nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return false, nil
	}
	return &Client{url: url, http: c}
}

// callOptions collects the per-call knobs.
type callOptions struct {
	headers    Headers
	resHeaders *Headers
	readable   bool
}

// CallOption configures one InvokeRemote call.
type CallOption func(*callOptions)

// WithHeader adds a request header to the call.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(Headers)
		}
		o.headers.Set(key, value)
	}
}

// WithResponseHeaders asks the client to fill dst with the headers the
// handler wrote into its response side-channel.
func WithResponseHeaders(dst *Headers) CallOption {
	return func(o *callOptions) { o.resHeaders = dst }
}

// WithReadable asks the service for the readable response flavor.
// Useful when the response is inspected by a human rather than decoded.
func WithReadable() CallOption {
	return func(o *callOptions) { o.readable = true }
}

// InvokeRemote encodes req with the method's request serializer, POSTs
// the envelope, and decodes the response into the method's response
// type. The request value may be frozen or mutable.
func (c *Client) InvokeRemote(ctx context.Context, m Method, req *soia.Value, opts ...CallOption) (*soia.Value, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	payload, err := soia.NewSerializer(m.Request).ToJSONCode(req)
	if err != nil {
		return nil, errors.Wrapf(err, "service: method %s: encode request", m.Name)
	}
	body := Envelope(m, payload, o.readable)

	hreq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "service: build request")
	}
	hreq.Header.Set("Content-Type", textContentType)
	for k, v := range o.headers {
		hreq.Header.Set(k, v)
	}

	hres, err := c.http.Do(hreq)
	if err != nil {
		return nil, errors.Wrapf(err, "service: call %s", c.url)
	}
	defer hres.Body.Close()

	data, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, errors.Wrap(err, "service: read response")
	}
	if o.resHeaders != nil {
		*o.resHeaders = HeadersFromHTTP(hres.Header)
	}
	if hres.StatusCode != http.StatusOK {
		return nil, errors.Errorf("service: method %s: HTTP %d: %s", m.Name, hres.StatusCode, strings.TrimSpace(string(data)))
	}

	res, err := soia.NewSerializer(m.Response).FromJSONCode(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "service: method %s: decode response", m.Name)
	}
	return res, nil
}
