// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/stacklok/appauth-go/logger"
	"github.com/stacklok/appauth-go/recovery"
)

const (
	defaultCallbackPath  = "/callback"
	defaultListenAddress = "127.0.0.1:0"
	defaultResponsePage  = "<!DOCTYPE html><html><body><p>Authorization complete. You can close this window.</p></body></html>"
	readHeaderTimeout    = 10 * time.Second
)

// LoopbackOption configures a LoopbackReceiver.
type LoopbackOption func(*loopbackOptions)

type loopbackOptions struct {
	path         string
	address      string
	responsePage string
}

// WithCallbackPath sets the path the provider redirects to. The default is /callback.
func WithCallbackPath(path string) LoopbackOption {
	return func(o *loopbackOptions) {
		o.path = "/" + strings.TrimPrefix(path, "/")
	}
}

// WithListenAddress sets the loopback address to listen on. The host must be
// a loopback IP literal. The default picks a free port on 127.0.0.1.
func WithListenAddress(address string) LoopbackOption {
	return func(o *loopbackOptions) {
		o.address = address
	}
}

// WithResponsePage sets the HTML shown in the browser after the redirect is captured.
func WithResponsePage(html string) LoopbackOption {
	return func(o *loopbackOptions) {
		o.responsePage = html
	}
}

// LoopbackReceiver captures a redirect on a loopback HTTP listener, as
// described for desktop apps in RFC 8252 Section 7.3, and completes the flow
// through a Manager. Each receiver captures at most one redirect.
type LoopbackReceiver struct {
	manager  *Manager
	opts     loopbackOptions
	listener net.Listener
	server   *http.Server

	captured  chan string
	failures  chan error
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoopbackReceiver starts listening. Call Close when done.
func NewLoopbackReceiver(manager *Manager, opts ...LoopbackOption) (*LoopbackReceiver, error) {
	o := loopbackOptions{
		path:         defaultCallbackPath,
		address:      defaultListenAddress,
		responsePage: defaultResponsePage,
	}
	for _, opt := range opts {
		opt(&o)
	}

	host, _, err := net.SplitHostPort(o.address)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", o.address, err)
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return nil, fmt.Errorf("listen address %q is not a loopback IP literal", o.address)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", o.address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", o.address, err)
	}

	r := &LoopbackReceiver{
		manager:  manager,
		opts:     o,
		listener: listener,
		captured: make(chan string, 1),
		failures: make(chan error, 1),
		done:     make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(o.path, r.handleCallback)
	r.server = &http.Server{
		Handler: recovery.Middleware(mux, recovery.WithPanicHandler(func(_ *http.Request, v any) {
			r.fail(fmt.Errorf("redirect handler panicked: %v", v))
		})),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := r.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warnw("loopback receiver stopped", "error", err)
			r.fail(err)
		}
	}()

	logger.Debugw("loopback receiver listening", "redirect_uri", r.RedirectURI())
	return r, nil
}

// RedirectURI is the URI to register and send as redirect_uri.
func (r *LoopbackReceiver) RedirectURI() string {
	return "http://" + r.listener.Addr().String() + r.opts.path
}

func (r *LoopbackReceiver) handleCallback(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uri := r.RedirectURI()
	if req.URL.RawQuery != "" {
		uri += "?" + req.URL.RawQuery
	}

	select {
	case r.captured <- uri:
	default:
		http.Error(w, "A redirect was already received", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(r.opts.responsePage))
}

func (r *LoopbackReceiver) fail(err error) {
	select {
	case r.failures <- err:
	default:
	}
}

// Receive waits for the redirect and completes flowID with it. If ctx ends
// first, the flow is canceled and the canceled outcome is returned together
// with the context error.
func (r *LoopbackReceiver) Receive(ctx context.Context, flowID string) (*Outcome, error) {
	select {
	case uri := <-r.captured:
		return r.manager.HandleRedirect(ctx, flowID, uri)
	case err := <-r.failures:
		_, cancelErr := r.manager.Cancel(context.WithoutCancel(ctx), flowID)
		return nil, errors.Join(fmt.Errorf("failed to capture redirect: %w", err), cancelErr)
	case <-ctx.Done():
		outcome, cancelErr := r.manager.Cancel(context.WithoutCancel(ctx), flowID)
		return outcome, errors.Join(ctx.Err(), cancelErr)
	case <-r.done:
		return nil, ErrReceiverClosed
	}
}

// Close stops the listener.
func (r *LoopbackReceiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.server.Close()
	})
	return err
}
