// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stacklok/appauth-go/oauth"
	validation "github.com/stacklok/appauth-go/validation/http"
)

// ErrUnsupportedAuthenticationMethod is returned for a token_endpoint_auth_method
// this library cannot perform.
var ErrUnsupportedAuthenticationMethod = errors.New("unsupported client authentication method")

// ClientAuthentication attaches client credentials to a token request.
type ClientAuthentication interface {
	// RequestHeaders returns headers to add to the request, or nil.
	RequestHeaders(clientID string) (http.Header, error)
	// RequestParameters returns body parameters to add to the request, or nil.
	RequestParameters(clientID string) (url.Values, error)
}

// ClientSecretBasic sends the client credentials in an HTTP Basic Authorization
// header (RFC 6749 Section 2.3.1).
type ClientSecretBasic struct {
	Secret string
}

// RequestHeaders returns the Authorization header. Client ID and secret are
// form-urlencoded before being joined, as RFC 6749 Appendix B requires.
func (c ClientSecretBasic) RequestHeaders(clientID string) (http.Header, error) {
	credentials := url.QueryEscape(clientID) + ":" + url.QueryEscape(c.Secret)
	value := "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
	if err := validation.ValidateHeaderValue(value); err != nil {
		return nil, fmt.Errorf("invalid client credentials: %w", err)
	}
	return http.Header{"Authorization": {value}}, nil
}

// RequestParameters returns nil; the credentials travel in the header.
func (ClientSecretBasic) RequestParameters(string) (url.Values, error) {
	return nil, nil
}

// ClientSecretPost sends the client credentials as body parameters.
type ClientSecretPost struct {
	Secret string
}

// RequestHeaders returns nil.
func (ClientSecretPost) RequestHeaders(string) (http.Header, error) {
	return nil, nil
}

// RequestParameters returns client_id and client_secret.
func (c ClientSecretPost) RequestParameters(clientID string) (url.Values, error) {
	return url.Values{
		oauth.ParamClientID:     {clientID},
		oauth.ParamClientSecret: {c.Secret},
	}, nil
}

// NoClientAuthentication identifies a public client by client_id alone.
type NoClientAuthentication struct{}

// RequestHeaders returns nil.
func (NoClientAuthentication) RequestHeaders(string) (http.Header, error) {
	return nil, nil
}

// RequestParameters returns client_id.
func (NoClientAuthentication) RequestParameters(clientID string) (url.Values, error) {
	return url.Values{oauth.ParamClientID: {clientID}}, nil
}

// ClientAuthenticationFromMethod returns the strategy for a registered
// token_endpoint_auth_method. An empty method defaults to client_secret_basic
// (RFC 7591 Section 2).
func ClientAuthenticationFromMethod(method, secret string) (ClientAuthentication, error) {
	switch method {
	case "", oauth.TokenEndpointAuthMethodClientSecretBasic:
		return ClientSecretBasic{Secret: secret}, nil
	case oauth.TokenEndpointAuthMethodClientSecretPost:
		return ClientSecretPost{Secret: secret}, nil
	case oauth.TokenEndpointAuthMethodNone:
		return NoClientAuthentication{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAuthenticationMethod, method)
	}
}
