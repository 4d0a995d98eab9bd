// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/stacklok/appauth-go/connection"
	"github.com/stacklok/appauth-go/logger"
	"github.com/stacklok/appauth-go/oauth"
)

// ServiceConfiguration holds the endpoints of an authorization server.
// Treat it as immutable once constructed.
type ServiceConfiguration struct {
	AuthorizationEndpoint string                       `json:"authorizationEndpoint"`
	TokenEndpoint         string                       `json:"tokenEndpoint"`
	RegistrationEndpoint  string                       `json:"registrationEndpoint,omitempty"`
	EndSessionEndpoint    string                       `json:"endSessionEndpoint,omitempty"`
	DiscoveryDoc          *oauth.OIDCDiscoveryDocument `json:"discoveryDoc,omitempty"`
}

// NewServiceConfiguration builds a configuration from explicit endpoints.
// The authorization and token endpoints are required; registration and end
// session endpoints may be empty.
func NewServiceConfiguration(authorizationEndpoint, tokenEndpoint, registrationEndpoint, endSessionEndpoint string) (*ServiceConfiguration, error) {
	if authorizationEndpoint == "" {
		return nil, oauth.ErrMissingAuthorizationEndpoint
	}
	if tokenEndpoint == "" {
		return nil, oauth.ErrMissingTokenEndpoint
	}
	for _, endpoint := range []string{authorizationEndpoint, tokenEndpoint, registrationEndpoint, endSessionEndpoint} {
		if endpoint == "" {
			continue
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
	}
	return &ServiceConfiguration{
		AuthorizationEndpoint: authorizationEndpoint,
		TokenEndpoint:         tokenEndpoint,
		RegistrationEndpoint:  registrationEndpoint,
		EndSessionEndpoint:    endSessionEndpoint,
	}, nil
}

// ServiceConfigurationFromDiscovery builds a configuration from a discovery document.
func ServiceConfigurationFromDiscovery(doc *oauth.OIDCDiscoveryDocument) (*ServiceConfiguration, error) {
	if doc == nil {
		return nil, errors.New("discovery document is nil")
	}
	if err := doc.Validate(false); err != nil {
		return nil, err
	}
	return &ServiceConfiguration{
		AuthorizationEndpoint: doc.AuthorizationEndpoint,
		TokenEndpoint:         doc.TokenEndpoint,
		RegistrationEndpoint:  doc.RegistrationEndpoint,
		EndSessionEndpoint:    doc.EndSessionEndpoint,
		DiscoveryDoc:          doc,
	}, nil
}

// Issuer returns the issuer from the discovery document, or "" when the
// configuration was built from explicit endpoints.
func (c *ServiceConfiguration) Issuer() string {
	if c == nil || c.DiscoveryDoc == nil {
		return ""
	}
	return c.DiscoveryDoc.Issuer
}

// ToJSON serializes the configuration.
func (c *ServiceConfiguration) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// ServiceConfigurationFromJSON deserializes a configuration produced by ToJSON.
func ServiceConfigurationFromJSON(data []byte) (*ServiceConfiguration, error) {
	var c ServiceConfiguration
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse service configuration: %w", err)
	}
	if c.AuthorizationEndpoint == "" {
		return nil, oauth.ErrMissingAuthorizationEndpoint
	}
	if c.TokenEndpoint == "" {
		return nil, oauth.ErrMissingTokenEndpoint
	}
	return &c, nil
}

// DiscoveryOption configures FetchFromIssuer and FetchFromURL.
type DiscoveryOption func(*discoveryOptions)

type discoveryOptions struct {
	config         *Configuration
	skipHTTPSCheck bool
	expectedIssuer string
}

// WithDiscoveryConfiguration supplies the connection settings for the fetch.
func WithDiscoveryConfiguration(cfg *Configuration) DiscoveryOption {
	return func(o *discoveryOptions) {
		o.config = cfg
	}
}

// WithSkipIssuerHTTPSCheck permits plain http discovery URIs. Test deployments only.
func WithSkipIssuerHTTPSCheck() DiscoveryOption {
	return func(o *discoveryOptions) {
		o.skipHTTPSCheck = true
	}
}

// WithValidateIssuer requires the document's issuer to equal expected.
func WithValidateIssuer(expected string) DiscoveryOption {
	return func(o *discoveryOptions) {
		o.expectedIssuer = expected
	}
}

// DiscoveryURI returns the OpenID Connect discovery document location for issuer.
func DiscoveryURI(issuer string) (string, error) {
	u, err := url.Parse(issuer)
	if err != nil {
		return "", fmt.Errorf("invalid issuer %q: %w", issuer, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("issuer %q must be an absolute URL", issuer)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + oauth.WellKnownOIDCPath
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// FetchFromIssuer retrieves the discovery document under issuer and builds a
// ServiceConfiguration from it. The issuer path is kept, so tenant-scoped
// issuers such as https://idp.example/tenant resolve correctly.
func FetchFromIssuer(ctx context.Context, issuer string, opts ...DiscoveryOption) (*ServiceConfiguration, error) {
	discoveryURI, err := DiscoveryURI(issuer)
	if err != nil {
		return nil, FromTemplate(GeneralErrors.InvalidDiscoveryDocument, err)
	}
	return FetchFromURL(ctx, discoveryURI, opts...)
}

// FetchFromURL retrieves the discovery document at discoveryURI and builds a
// ServiceConfiguration from it. Failures are AuthorizationExceptions: NetworkError
// when the document cannot be fetched, JSONDeserializationError when it is not
// JSON, and InvalidDiscoveryDocument when required fields are missing.
func FetchFromURL(ctx context.Context, discoveryURI string, opts ...DiscoveryOption) (*ServiceConfiguration, error) {
	options := &discoveryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	cfg := options.config
	if cfg == nil {
		cfg = NewConfiguration()
	}
	if options.skipHTTPSCheck {
		cfg = cfg.withSkipIssuerHTTPSChecks()
	}

	client, err := cfg.ConnectionBuilder().Build()
	if err != nil {
		return nil, FromTemplate(GeneralErrors.NetworkError, err)
	}

	logger.Debugf("fetching discovery document from %s", discoveryURI)
	result, err := connection.FetchJSON[oauth.OIDCDiscoveryDocument](ctx, client, discoveryURI)
	if err != nil {
		if errors.Is(err, connection.ErrMalformedJSON) || errors.Is(err, connection.ErrUnexpectedContentType) {
			return nil, FromTemplate(GeneralErrors.JSONDeserializationError, err)
		}
		return nil, FromTemplate(GeneralErrors.NetworkError, err)
	}

	doc := result.Data
	if options.expectedIssuer != "" && doc.Issuer != options.expectedIssuer {
		return nil, FromTemplate(GeneralErrors.InvalidDiscoveryDocument,
			fmt.Errorf("issuer mismatch: expected %s, got %s", options.expectedIssuer, doc.Issuer))
	}

	config, err := ServiceConfigurationFromDiscovery(&doc)
	if err != nil {
		return nil, FromTemplate(GeneralErrors.InvalidDiscoveryDocument, err)
	}
	return config, nil
}
