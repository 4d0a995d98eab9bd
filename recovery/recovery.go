// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package recovery

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/stacklok/appauth-go/logger"
)

// PanicHandler observes a recovered panic after it has been logged.
type PanicHandler func(r *http.Request, recovered any)

// Option configures Middleware.
type Option func(*options)

type options struct {
	onPanic PanicHandler
}

// WithPanicHandler registers a callback invoked for every recovered panic.
func WithPanicHandler(h PanicHandler) Option {
	return func(o *options) {
		o.onPanic = h
	}
}

// Middleware is an HTTP middleware that recovers from panics. The panic value
// and stack are logged and the client receives a 500 Internal Server Error.
// http.ErrAbortHandler is re-raised so net/http can abort the response.
func Middleware(next http.Handler, opts ...Option) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(recovered)
			}

			logger.Errorw("recovered from panic in HTTP handler",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			if o.onPanic != nil {
				o.onPanic(r, recovered)
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
