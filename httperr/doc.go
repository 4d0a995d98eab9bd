// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package httperr provides error types that carry the HTTP status code of a failed
response through the call stack.

The connection layer wraps every non-success response in a CodedError, so code
that parses OAuth error bodies can still recover the status, and callers can
distinguish provider rejections from outages and from transport failures.

# Basic Usage

	err := httperr.FromResponse(resp, body)

	switch {
	case httperr.IsClientError(err):
		// provider rejected the request
	case httperr.IsServerError(err):
		// provider is unhealthy
	case httperr.Code(err) == 0:
		// no HTTP response was received
	}

# Error Wrapping

CodedError supports the standard Go error wrapping pattern:

	sentinel := errors.New("token endpoint unavailable")
	err := httperr.WithCode(sentinel, http.StatusServiceUnavailable)

	if errors.Is(err, sentinel) {
		// handle specific error
	}

	var coded *httperr.CodedError
	if errors.As(err, &coded) {
		log.Printf("HTTP %d from %s: %s", coded.HTTPCode(), coded.URL(), coded.Body())
	}
*/
package httperr
