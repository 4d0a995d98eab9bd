// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// WarmupBinding shares one custom tab session among every flow started by a
// manager. The session is bound on the first Acquire and closed when the last
// holder releases it or the binding is disposed.
type WarmupBinding struct {
	service     TabService
	packageName string

	mu       sync.Mutex
	session  Session
	refs     int
	disposed bool
}

// NewWarmupBinding returns an unbound binding for packageName.
func NewWarmupBinding(service TabService, packageName string) *WarmupBinding {
	return &WarmupBinding{service: service, packageName: packageName}
}

// Acquire returns the shared session, binding it if needed, and takes a reference.
func (w *WarmupBinding) Acquire(ctx context.Context) (Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.disposed {
		return nil, ErrBindingDisposed
	}
	if w.session == nil {
		session, err := w.service.Bind(ctx, w.packageName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind custom tab service for %s: %w", w.packageName, err)
		}
		w.session = session
	}
	w.refs++
	return w.session, nil
}

// MayLaunch forwards a prefetch hint if a session is bound. It is a no-op otherwise.
func (w *WarmupBinding) MayLaunch(ctx context.Context, uri string) error {
	w.mu.Lock()
	session := w.session
	w.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.MayLaunch(ctx, uri)
}

// Release drops one reference, closing the session when none remain.
func (w *WarmupBinding) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.refs == 0 {
		return nil
	}
	w.refs--
	if w.refs > 0 {
		return nil
	}
	return w.closeLocked()
}

// Dispose closes the session regardless of outstanding references. Later
// Acquire calls fail with ErrBindingDisposed.
func (w *WarmupBinding) Dispose() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.disposed = true
	w.refs = 0
	return w.closeLocked()
}

// Bound reports whether a session is currently held.
func (w *WarmupBinding) Bound() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session != nil
}

func (w *WarmupBinding) closeLocked() error {
	if w.session == nil {
		return nil
	}
	err := w.session.Close()
	w.session = nil
	if err != nil {
		return errors.Join(errors.New("failed to close custom tab session"), err)
	}
	return nil
}
