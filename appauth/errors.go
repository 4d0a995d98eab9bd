// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/stacklok/appauth-go/oauth"
)

// ExceptionType groups AuthorizationException codes by where the failure originated.
type ExceptionType int

const (
	// TypeGeneral covers failures raised by this library rather than the provider.
	TypeGeneral ExceptionType = iota
	// TypeOAuthAuthorization covers errors returned to the redirect URI.
	TypeOAuthAuthorization
	// TypeOAuthToken covers errors returned by the token endpoint.
	TypeOAuthToken
	// TypeResourceServerAuthorization covers errors returned by a protected resource.
	TypeResourceServerAuthorization
	// TypeOAuthRegistration covers errors returned by the registration endpoint.
	TypeOAuthRegistration
)

// AuthorizationException is the error type for every failed authorization,
// token, registration or end-session operation.
//
// Two exceptions are considered the same error by errors.Is when their Type and
// Code agree, so the templates in GeneralErrors, AuthorizationRequestErrors,
// TokenRequestErrors and RegistrationRequestErrors can be used as targets.
type AuthorizationException struct {
	Type ExceptionType `json:"type"`
	Code int           `json:"code"`
	// OAuthError is the error parameter returned by the provider, if any.
	OAuthError       string `json:"error,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
	ErrorURI         string `json:"errorUri,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *AuthorizationException) Error() string {
	msg := fmt.Sprintf("authorization exception (type %d, code %d)", e.Type, e.Code)
	if e.OAuthError != "" {
		msg += ": " + e.OAuthError
	}
	if e.ErrorDescription != "" {
		msg += ": " + e.ErrorDescription
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *AuthorizationException) Unwrap() error {
	return e.cause
}

// Is reports whether target is an AuthorizationException with the same type and code.
func (e *AuthorizationException) Is(target error) bool {
	t, ok := target.(*AuthorizationException)
	return ok && t.Type == e.Type && t.Code == e.Code
}

// FromTemplate returns a copy of template with cause attached.
func FromTemplate(template *AuthorizationException, cause error) *AuthorizationException {
	ex := *template
	ex.cause = cause
	return &ex
}

// FromOAuthTemplate returns a copy of template carrying the provider's error fields.
// Empty arguments keep the template's values.
func FromOAuthTemplate(template *AuthorizationException, oauthError, description, uri string) *AuthorizationException {
	ex := *template
	if oauthError != "" {
		ex.OAuthError = oauthError
	}
	if description != "" {
		ex.ErrorDescription = description
	}
	if uri != "" {
		ex.ErrorURI = uri
	}
	ex.cause = nil
	return &ex
}

// FromOAuthRedirect builds an authorization error from the error, error_description
// and error_uri parameters of a redirect.
func FromOAuthRedirect(params url.Values) *AuthorizationException {
	code := params.Get(oauth.ParamError)
	return FromOAuthTemplate(AuthorizationErrorFromCode(code), code,
		params.Get(oauth.ParamErrorDescription), params.Get(oauth.ParamErrorURI))
}

// AsAuthorizationException returns the AuthorizationException in err's chain.
// Other errors are wrapped with fallback as the template.
func AsAuthorizationException(err error, fallback *AuthorizationException) *AuthorizationException {
	if err == nil {
		return nil
	}
	var ex *AuthorizationException
	if errors.As(err, &ex) {
		return ex
	}
	return FromTemplate(fallback, err)
}

func generalEx(code int, description string) *AuthorizationException {
	return &AuthorizationException{Type: TypeGeneral, Code: code, ErrorDescription: description}
}

func authEx(code int, oauthError string) *AuthorizationException {
	return &AuthorizationException{Type: TypeOAuthAuthorization, Code: code, OAuthError: oauthError}
}

func tokenEx(code int, oauthError string) *AuthorizationException {
	return &AuthorizationException{Type: TypeOAuthToken, Code: code, OAuthError: oauthError}
}

func registrationEx(code int, oauthError string) *AuthorizationException {
	return &AuthorizationException{Type: TypeOAuthRegistration, Code: code, OAuthError: oauthError}
}

// GeneralErrors are raised by this library. Treat them as read-only templates.
var GeneralErrors = struct {
	InvalidDiscoveryDocument       *AuthorizationException
	UserCanceledAuthFlow           *AuthorizationException
	ProgramCanceledAuthFlow        *AuthorizationException
	NetworkError                   *AuthorizationException
	ServerError                    *AuthorizationException
	JSONDeserializationError       *AuthorizationException
	TokenResponseConstructionError *AuthorizationException
	InvalidRegistrationResponse    *AuthorizationException
	IDTokenParsingError            *AuthorizationException
	IDTokenValidationError         *AuthorizationException
}{
	InvalidDiscoveryDocument:       generalEx(0, "Invalid discovery document"),
	UserCanceledAuthFlow:           generalEx(1, "User cancelled flow"),
	ProgramCanceledAuthFlow:        generalEx(2, "Flow cancelled programmatically"),
	NetworkError:                   generalEx(3, "Network error"),
	ServerError:                    generalEx(4, "Server error"),
	JSONDeserializationError:       generalEx(5, "JSON deserialization error"),
	TokenResponseConstructionError: generalEx(6, "Token response construction error"),
	InvalidRegistrationResponse:    generalEx(7, "Invalid registration response"),
	IDTokenParsingError:            generalEx(8, "Unable to parse ID Token"),
	IDTokenValidationError:         generalEx(9, "Invalid ID Token"),
}

// AuthorizationRequestErrors are returned to the redirect URI of an authorization
// or end-session request (RFC 6749 Section 4.1.2.1).
var AuthorizationRequestErrors = struct {
	InvalidRequest          *AuthorizationException
	UnauthorizedClient      *AuthorizationException
	AccessDenied            *AuthorizationException
	UnsupportedResponseType *AuthorizationException
	InvalidScope            *AuthorizationException
	ServerError             *AuthorizationException
	TemporarilyUnavailable  *AuthorizationException
	ClientError             *AuthorizationException
	Other                   *AuthorizationException
	StateMismatch           *AuthorizationException
}{
	InvalidRequest:          authEx(1000, "invalid_request"),
	UnauthorizedClient:      authEx(1001, "unauthorized_client"),
	AccessDenied:            authEx(1002, "access_denied"),
	UnsupportedResponseType: authEx(1003, "unsupported_response_type"),
	InvalidScope:            authEx(1004, "invalid_scope"),
	ServerError:             authEx(1005, "server_error"),
	TemporarilyUnavailable:  authEx(1006, "temporarily_unavailable"),
	ClientError:             authEx(1007, ""),
	Other:                   authEx(1008, ""),
	StateMismatch: &AuthorizationException{
		Type:             TypeOAuthAuthorization,
		Code:             1009,
		ErrorDescription: "Response state param did not match request state",
	},
}

// TokenRequestErrors are returned by the token endpoint (RFC 6749 Section 5.2).
var TokenRequestErrors = struct {
	InvalidRequest       *AuthorizationException
	InvalidClient        *AuthorizationException
	InvalidGrant         *AuthorizationException
	UnauthorizedClient   *AuthorizationException
	UnsupportedGrantType *AuthorizationException
	InvalidScope         *AuthorizationException
	ClientError          *AuthorizationException
	Other                *AuthorizationException
}{
	InvalidRequest:       tokenEx(2000, "invalid_request"),
	InvalidClient:        tokenEx(2001, "invalid_client"),
	InvalidGrant:         tokenEx(2002, "invalid_grant"),
	UnauthorizedClient:   tokenEx(2003, "unauthorized_client"),
	UnsupportedGrantType: tokenEx(2004, "unsupported_grant_type"),
	InvalidScope:         tokenEx(2005, "invalid_scope"),
	ClientError:          tokenEx(2006, ""),
	Other:                tokenEx(2007, ""),
}

// RegistrationRequestErrors are returned by the registration endpoint (RFC 7591 Section 3.2.2).
var RegistrationRequestErrors = struct {
	InvalidRequest        *AuthorizationException
	InvalidRedirectURI    *AuthorizationException
	InvalidClientMetadata *AuthorizationException
	ClientError           *AuthorizationException
	Other                 *AuthorizationException
}{
	InvalidRequest:        registrationEx(4000, "invalid_request"),
	InvalidRedirectURI:    registrationEx(4001, "invalid_redirect_uri"),
	InvalidClientMetadata: registrationEx(4002, "invalid_client_metadata"),
	ClientError:           registrationEx(4003, ""),
	Other:                 registrationEx(4004, ""),
}

// AuthorizationErrorFromCode maps an authorization error string to its template.
// Unknown codes map to AuthorizationRequestErrors.Other.
func AuthorizationErrorFromCode(code string) *AuthorizationException {
	e := AuthorizationRequestErrors
	return lookup(code, e.Other, e.InvalidRequest, e.UnauthorizedClient, e.AccessDenied,
		e.UnsupportedResponseType, e.InvalidScope, e.ServerError, e.TemporarilyUnavailable)
}

// TokenErrorFromCode maps a token endpoint error string to its template.
// Unknown codes map to TokenRequestErrors.Other.
func TokenErrorFromCode(code string) *AuthorizationException {
	e := TokenRequestErrors
	return lookup(code, e.Other, e.InvalidRequest, e.InvalidClient, e.InvalidGrant,
		e.UnauthorizedClient, e.UnsupportedGrantType, e.InvalidScope)
}

// RegistrationErrorFromCode maps a registration endpoint error string to its template.
// Unknown codes map to RegistrationRequestErrors.Other.
func RegistrationErrorFromCode(code string) *AuthorizationException {
	e := RegistrationRequestErrors
	return lookup(code, e.Other, e.InvalidRequest, e.InvalidRedirectURI, e.InvalidClientMetadata)
}

func lookup(code string, other *AuthorizationException, candidates ...*AuthorizationException) *AuthorizationException {
	for _, c := range candidates {
		if c.OAuthError == code {
			return c
		}
	}
	return other
}
