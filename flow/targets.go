// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Target receives the outcome of a flow.
type Target interface {
	Deliver(ctx context.Context, outcome *Outcome) error
}

// TargetFunc adapts a function to a Target.
type TargetFunc func(ctx context.Context, outcome *Outcome) error

// Deliver calls f.
func (f TargetFunc) Deliver(ctx context.Context, outcome *Outcome) error {
	return f(ctx, outcome)
}

// TargetRegistry maps target names to targets. Flows persist target names, so
// a process that finishes a flow must register the same names as the process
// that dispatched it.
type TargetRegistry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewTargetRegistry returns an empty registry.
func NewTargetRegistry() *TargetRegistry {
	return &TargetRegistry{targets: make(map[string]Target)}
}

// Register adds a named target.
func (r *TargetRegistry) Register(name string, target Target) error {
	if name == "" {
		return errors.New("target name is required")
	}
	if target == nil {
		return errors.New("target is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[name]; ok {
		return fmt.Errorf("%w: %s", ErrTargetExists, name)
	}
	r.targets[name] = target
	return nil
}

// Unregister removes a named target if present.
func (r *TargetRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, name)
}

// Lookup returns the target registered under name.
func (r *TargetRegistry) Lookup(name string) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	return t, ok
}
