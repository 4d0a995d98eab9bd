// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/stacklok/appauth-go/connection"
	"github.com/stacklok/appauth-go/idtoken"
	"github.com/stacklok/appauth-go/logger"
	"github.com/stacklok/appauth-go/oauth"
)

// AuthorizationService performs token and registration requests against an
// authorization server. Calls block on the caller's goroutine and honour ctx;
// nothing is retried.
type AuthorizationService struct {
	config *Configuration
	dedupe bool
	group  singleflight.Group
}

// ServiceOption configures an AuthorizationService.
type ServiceOption func(*AuthorizationService)

// WithRefreshDeduplication collapses concurrent refresh_token requests that
// carry the same refresh token into a single network call. Without it every
// caller issues its own refresh.
func WithRefreshDeduplication() ServiceOption {
	return func(s *AuthorizationService) {
		s.dedupe = true
	}
}

// NewAuthorizationService returns a service using cfg. A nil cfg means NewConfiguration().
func NewAuthorizationService(cfg *Configuration, opts ...ServiceOption) *AuthorizationService {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	s := &AuthorizationService{config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configuration returns the service's configuration.
func (s *AuthorizationService) Configuration() *Configuration {
	return s.config
}

// oauthErrorBody is the JSON error body of RFC 6749 Section 5.2.
type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorURI         string `json:"error_uri"`
}

func oauthErrorHandler(fromCode func(string) *AuthorizationException) connection.ErrorHandler {
	return func(resp *http.Response, body []byte) error {
		if !connection.IsJSONContentType(resp.Header.Get("Content-Type")) {
			return nil
		}
		var e oauthErrorBody
		if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
			return nil
		}
		return FromOAuthTemplate(fromCode(e.Error), e.Error, e.ErrorDescription, e.ErrorURI)
	}
}

func classifyTransportError(err error) *AuthorizationException {
	var ex *AuthorizationException
	if errors.As(err, &ex) {
		return ex
	}
	if errors.Is(err, connection.ErrMalformedJSON) || errors.Is(err, connection.ErrUnexpectedContentType) {
		return FromTemplate(GeneralErrors.JSONDeserializationError, err)
	}
	return FromTemplate(GeneralErrors.NetworkError, err)
}

// PerformTokenRequest sends req to the token endpoint. clientAuth may be nil
// for public clients. An ID token returned by an authorization_code exchange is
// validated against the discovery issuer, the client ID and the request nonce.
func (s *AuthorizationService) PerformTokenRequest(
	ctx context.Context,
	req *TokenRequest,
	clientAuth ClientAuthentication,
) (*TokenResponse, error) {
	if req == nil || req.Configuration == nil {
		return nil, FromTemplate(TokenRequestErrors.ClientError, errors.New("token request has no service configuration"))
	}
	if clientAuth == nil {
		clientAuth = NoClientAuthentication{}
	}
	if s.dedupe && req.GrantType == oauth.GrantTypeRefreshToken {
		v, err, shared := s.group.Do(req.RefreshToken, func() (any, error) {
			return s.performTokenRequest(ctx, req, clientAuth)
		})
		if shared {
			logger.Debugf("refresh for client %s shared with a concurrent caller", req.ClientID)
		}
		if err != nil {
			return nil, err
		}
		return v.(*TokenResponse), nil
	}
	return s.performTokenRequest(ctx, req, clientAuth)
}

func (s *AuthorizationService) performTokenRequest(
	ctx context.Context,
	req *TokenRequest,
	clientAuth ClientAuthentication,
) (*TokenResponse, error) {
	form := req.RequestParameters()
	authParams, err := clientAuth.RequestParameters(req.ClientID)
	if err != nil {
		return nil, FromTemplate(TokenRequestErrors.ClientError, err)
	}
	maps.Copy(form, authParams)
	headers, err := clientAuth.RequestHeaders(req.ClientID)
	if err != nil {
		return nil, FromTemplate(TokenRequestErrors.ClientError, err)
	}

	client, err := s.config.ConnectionBuilder().Build()
	if err != nil {
		return nil, FromTemplate(GeneralErrors.NetworkError, err)
	}

	logger.Debugw("performing token request",
		"grant_type", req.GrantType,
		"client_id", req.ClientID,
		"endpoint", req.Configuration.TokenEndpoint)

	result, err := connection.FetchJSONWithForm[json.RawMessage](ctx, client, req.Configuration.TokenEndpoint, form,
		connection.WithHeaders(headers),
		connection.WithErrorHandler(oauthErrorHandler(TokenErrorFromCode)))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	// A 200 body carrying an error member is still a failure.
	var errBody oauthErrorBody
	if json.Unmarshal(result.Data, &errBody) == nil && errBody.Error != "" {
		return nil, FromOAuthTemplate(TokenErrorFromCode(errBody.Error),
			errBody.Error, errBody.ErrorDescription, errBody.ErrorURI)
	}

	builder, err := NewTokenResponseBuilder(req, s.config.Clock()).FromResponseJSON(result.Data)
	if err != nil {
		return nil, FromTemplate(GeneralErrors.TokenResponseConstructionError, err)
	}
	resp, err := builder.Build()
	if err != nil {
		return nil, FromTemplate(GeneralErrors.TokenResponseConstructionError, err)
	}

	if req.GrantType == oauth.GrantTypeAuthorizationCode && resp.IDToken != "" {
		if err := s.validateIDToken(req, resp.IDToken); err != nil {
			return nil, err
		}
	}

	logger.Debugf("token request for client %s succeeded, access token %s",
		req.ClientID, logger.Redact(resp.AccessToken))
	return resp, nil
}

func (s *AuthorizationService) validateIDToken(req *TokenRequest, raw string) error {
	tok, err := idtoken.Parse(raw)
	if err != nil {
		return FromTemplate(GeneralErrors.IDTokenParsingError, err)
	}
	clock := s.config.Clock()
	err = tok.Validate(idtoken.Expectation{
		Issuer:               req.Configuration.Issuer(),
		ClientID:             req.ClientID,
		Nonce:                req.Nonce,
		SkipIssuerHTTPSCheck: s.config.SkipIssuerHTTPSChecks,
		Now:                  clock.Now,
	})
	if err != nil {
		return FromTemplate(GeneralErrors.IDTokenValidationError, err)
	}
	return nil
}

// PerformRegistrationRequest registers a client at the configuration's
// registration endpoint (RFC 7591).
func (s *AuthorizationService) PerformRegistrationRequest(
	ctx context.Context,
	req *RegistrationRequest,
) (*RegistrationResponse, error) {
	if req == nil || req.Configuration == nil || req.Configuration.RegistrationEndpoint == "" {
		return nil, FromTemplate(RegistrationRequestErrors.ClientError,
			errors.New("service configuration has no registration endpoint"))
	}

	client, err := s.config.ConnectionBuilder().Build()
	if err != nil {
		return nil, FromTemplate(GeneralErrors.NetworkError, err)
	}

	logger.Debugf("registering client at %s", req.Configuration.RegistrationEndpoint)
	result, err := connection.PostJSON[json.RawMessage](ctx, client, req.Configuration.RegistrationEndpoint, req.WireBody(),
		connection.WithAcceptedStatus(http.StatusOK, http.StatusCreated),
		connection.WithErrorHandler(oauthErrorHandler(RegistrationErrorFromCode)))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	resp, err := RegistrationResponseFromWireJSON(req, result.Data)
	if err != nil {
		if errors.Is(err, ErrMissingRegistrationField) {
			return nil, FromTemplate(GeneralErrors.InvalidRegistrationResponse, err)
		}
		return nil, FromTemplate(GeneralErrors.JSONDeserializationError, fmt.Errorf("registration response: %w", err))
	}
	logger.Infof("registered client %s", resp.ClientID)
	return resp, nil
}
