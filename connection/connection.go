// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package connection

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=connection.go -destination=mocks/mock_connection.go -package=mocks HTTPClient,Builder

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultConnectTimeout bounds TCP connection establishment and the TLS handshake.
	DefaultConnectTimeout = 15 * time.Second

	// DefaultReadTimeout bounds the wait for response headers once the request is written.
	DefaultReadTimeout = 10 * time.Second
)

var (
	// ErrNotHTTPS is returned when a request URL does not use the https scheme.
	ErrNotHTTPS = errors.New("only https connections are permitted")

	// ErrUnexpectedContentType is returned when a success response is not JSON.
	ErrUnexpectedContentType = errors.New("unexpected content type")

	// ErrMalformedJSON is returned when a success response body cannot be parsed.
	ErrMalformedJSON = errors.New("failed to parse JSON response")
)

// HTTPClient executes HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Builder creates the HTTPClient used to reach an authorization server.
type Builder interface {
	Build() (HTTPClient, error)
}

// ValidatingTransport rejects any request whose URL is not https before
// forwarding it to Transport.
type ValidatingTransport struct {
	Transport http.RoundTripper
}

// RoundTrip validates the request URL prior to forwarding.
func (t *ValidatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL == nil {
		return nil, fmt.Errorf("%w: missing URL", ErrNotHTTPS)
	}
	if req.URL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrNotHTTPS, req.URL.Redacted())
	}
	return t.Transport.RoundTrip(req)
}

// Option configures a DefaultBuilder or InsecureBuilder.
type Option func(*builderOptions)

type builderOptions struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	rootCAs        *x509.CertPool
	caBundlePath   string
}

// WithConnectTimeout overrides DefaultConnectTimeout. Zero keeps the default.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *builderOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithReadTimeout overrides DefaultReadTimeout. Zero keeps the default.
func WithReadTimeout(d time.Duration) Option {
	return func(o *builderOptions) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// WithRootCAs sets the certificate pool used to verify servers.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *builderOptions) {
		o.rootCAs = pool
	}
}

// WithCABundle reads a PEM bundle from path and uses it to verify servers.
func WithCABundle(path string) Option {
	return func(o *builderOptions) {
		o.caBundlePath = path
	}
}

func newBuilderOptions(opts []Option) builderOptions {
	o := builderOptions{
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DefaultBuilder builds HTTPS-only clients.
type DefaultBuilder struct {
	opts builderOptions
}

// NewDefaultBuilder returns a DefaultBuilder with the given options applied.
func NewDefaultBuilder(opts ...Option) *DefaultBuilder {
	return &DefaultBuilder{opts: newBuilderOptions(opts)}
}

// Build creates an HTTPS-only client.
func (b *DefaultBuilder) Build() (HTTPClient, error) {
	transport, err := b.opts.transport()
	if err != nil {
		return nil, err
	}
	return newClient(&ValidatingTransport{Transport: transport}), nil
}

// InsecureBuilder builds clients that accept plain http URLs.
// It must only be used against test deployments.
type InsecureBuilder struct {
	opts builderOptions
}

// NewInsecureBuilder returns an InsecureBuilder with the given options applied.
func NewInsecureBuilder(opts ...Option) *InsecureBuilder {
	return &InsecureBuilder{opts: newBuilderOptions(opts)}
}

// Build creates a client without the https requirement.
func (b *InsecureBuilder) Build() (HTTPClient, error) {
	transport, err := b.opts.transport()
	if err != nil {
		return nil, err
	}
	return newClient(transport), nil
}

func (o builderOptions) transport() (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: o.connectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   o.connectTimeout,
		ResponseHeaderTimeout: o.readTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	pool := o.rootCAs
	if o.caBundlePath != "" {
		caCert, err := os.ReadFile(o.caBundlePath) // #nosec G304 - path is supplied by the caller's configuration
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate bundle: %w", err)
		}
		if pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate bundle")
		}
	}
	transport.TLSClientConfig.RootCAs = pool

	return transport, nil
}

func newClient(transport http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: transport,
		// Redirects are never followed; the response is returned as-is.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
