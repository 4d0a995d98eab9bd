// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package httperr provides error types that carry the HTTP status code of a failed response.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// MaxBodyPreview is the maximum number of response body bytes kept on a CodedError.
const MaxBodyPreview = 1024

// CodedError wraps an error with the HTTP status code of the response that caused it.
// The status travels with the error through the call stack, so callers further up
// can tell a provider rejection (4xx) from a provider outage (5xx) from a transport
// failure (no status at all).
type CodedError struct {
	err  error
	code int
	url  string
	body string
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error for errors.Is() and errors.As() compatibility.
func (e *CodedError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *CodedError) HTTPCode() int {
	return e.code
}

// URL returns the request URL, if known.
func (e *CodedError) URL() string {
	return e.url
}

// Body returns a preview of the response body, at most MaxBodyPreview bytes.
func (e *CodedError) Body() string {
	return e.body
}

// WithCode wraps an error with an HTTP status code.
// If err is nil, WithCode returns nil.
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &CodedError{err: err, code: code}
}

// New creates a new error with the given message and HTTP status code.
func New(message string, code int) error {
	return &CodedError{err: errors.New(message), code: code}
}

// FromResponse builds a CodedError describing a non-success response. The body is
// truncated to MaxBodyPreview bytes.
func FromResponse(resp *http.Response, body []byte) error {
	if resp == nil {
		return errors.New("nil HTTP response")
	}
	requestURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		requestURL = resp.Request.URL.Redacted()
	}
	preview := string(body)
	if len(preview) > MaxBodyPreview {
		preview = preview[:MaxBodyPreview]
	}
	msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if requestURL != "" {
		msg = fmt.Sprintf("HTTP request to %s failed with status %d", requestURL, resp.StatusCode)
	}
	return &CodedError{
		err:  errors.New(msg),
		code: resp.StatusCode,
		url:  requestURL,
		body: preview,
	}
}

// Code extracts the HTTP status code from an error chain.
// It returns 0 if err is nil or no CodedError is present, meaning no HTTP
// response was received.
func Code(err error) int {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return 0
}

// IsClientError reports whether err carries a 4xx status code.
func IsClientError(err error) bool {
	code := Code(err)
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}

// IsServerError reports whether err carries a 5xx status code.
func IsServerError(err error) bool {
	return Code(err) >= http.StatusInternalServerError
}
