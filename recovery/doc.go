// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package recovery provides panic recovery middleware for HTTP handlers.
//
// The loopback redirect receiver wraps its callback handler with Middleware so
// that a panic while capturing a redirect is logged and answered with a 500
// instead of tearing down the host application.
//
//	handler := recovery.Middleware(mux,
//	    recovery.WithPanicHandler(func(r *http.Request, v any) {
//	        failures <- fmt.Errorf("callback panicked: %v", v)
//	    }),
//	)
package recovery
