// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/appauth-go/connection"
	"github.com/stacklok/appauth-go/env"
)

// Environment variables that override values loaded by LoadConfiguration.
const (
	EnvSkipIssuerHTTPSChecks = "APPAUTH_SKIP_ISSUER_HTTPS_CHECKS"
	EnvConnectTimeout        = "APPAUTH_CONNECT_TIMEOUT"
	EnvReadTimeout           = "APPAUTH_READ_TIMEOUT"
)

// Configuration holds library-wide settings: how connections are opened, whether
// issuer HTTPS checks apply, and which clock drives expiry calculations.
type Configuration struct {
	// SkipIssuerHTTPSChecks allows http discovery, token and registration endpoints
	// and non-HTTPS ID token issuers. It must only be set for test deployments.
	SkipIssuerHTTPSChecks bool          `yaml:"skipIssuerHttpsChecks"`
	ConnectTimeout        time.Duration `yaml:"connectTimeout"`
	ReadTimeout           time.Duration `yaml:"readTimeout"`
	CABundle              string        `yaml:"caBundle"`
	// BrowserPolicyFile names a YAML browser allow/deny policy.
	BrowserPolicyFile string `yaml:"browserPolicyFile"`
	// FlowStateDir overrides where pending authorization flows are persisted.
	FlowStateDir string `yaml:"flowStateDir"`

	builder connection.Builder
	clock   Clock
}

// ConfigurationOption configures a Configuration.
type ConfigurationOption func(*Configuration)

// WithConnectionBuilder replaces the builder derived from the other settings.
func WithConnectionBuilder(b connection.Builder) ConfigurationOption {
	return func(c *Configuration) {
		c.builder = b
	}
}

// WithClock replaces the system clock.
func WithClock(clock Clock) ConfigurationOption {
	return func(c *Configuration) {
		c.clock = clock
	}
}

// WithSkipIssuerHTTPSChecks sets SkipIssuerHTTPSChecks.
func WithSkipIssuerHTTPSChecks(skip bool) ConfigurationOption {
	return func(c *Configuration) {
		c.SkipIssuerHTTPSChecks = skip
	}
}

// WithTimeouts sets the connect and read timeouts. Zero keeps the defaults.
func WithTimeouts(connect, read time.Duration) ConfigurationOption {
	return func(c *Configuration) {
		c.ConnectTimeout = connect
		c.ReadTimeout = read
	}
}

// NewConfiguration returns a Configuration with defaults and opts applied.
func NewConfiguration(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{
		ConnectTimeout: connection.DefaultConnectTimeout,
		ReadTimeout:    connection.DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConnectionBuilder returns the builder used for every request.
func (c *Configuration) ConnectionBuilder() connection.Builder {
	if c.builder != nil {
		return c.builder
	}
	opts := []connection.Option{
		connection.WithConnectTimeout(c.ConnectTimeout),
		connection.WithReadTimeout(c.ReadTimeout),
	}
	if c.CABundle != "" {
		opts = append(opts, connection.WithCABundle(c.CABundle))
	}
	if c.SkipIssuerHTTPSChecks {
		return connection.NewInsecureBuilder(opts...)
	}
	return connection.NewDefaultBuilder(opts...)
}

// Clock returns the configured clock.
func (c *Configuration) Clock() Clock {
	if c.clock != nil {
		return c.clock
	}
	return SystemClock{}
}

func (c *Configuration) withSkipIssuerHTTPSChecks() *Configuration {
	cp := *c
	cp.SkipIssuerHTTPSChecks = true
	return &cp
}

// LoadConfiguration reads a YAML configuration from path, if path is non-empty,
// and then applies the APPAUTH_* environment overrides read through envReader.
func LoadConfiguration(path string, envReader env.Reader, opts ...ConfigurationOption) (*Configuration, error) {
	cfg := NewConfiguration(opts...)

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the caller
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration %s: %w", path, err)
		}
	}

	var err error
	if cfg.SkipIssuerHTTPSChecks, err = env.Bool(envReader, EnvSkipIssuerHTTPSChecks, cfg.SkipIssuerHTTPSChecks); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout, err = env.Duration(envReader, EnvConnectTimeout, cfg.ConnectTimeout); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = env.Duration(envReader, EnvReadTimeout, cfg.ReadTimeout); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout < 0 || cfg.ReadTimeout < 0 {
		return nil, fmt.Errorf("timeouts must not be negative")
	}
	return cfg, nil
}
