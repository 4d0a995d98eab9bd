// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Store persists pending flows between dispatch and redirect.
type Store interface {
	// Save writes or replaces a flow record.
	Save(ctx context.Context, flow PendingFlow) error
	// Begin writes flow only if no other flow is stored, otherwise it returns
	// ErrFlowInProgress. The check and the write happen as one step.
	Begin(ctx context.Context, flow PendingFlow) error
	// Claim removes and returns a flow. Only one caller can claim a given flow.
	Claim(ctx context.Context, id string) (PendingFlow, error)
	// List returns every stored flow ordered by ID.
	List(ctx context.Context) ([]PendingFlow, error)
}

// MemoryStore keeps pending flows in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	flows map[string]PendingFlow
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flows: make(map[string]PendingFlow)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, flow PendingFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.ID] = flow
	return nil
}

// Begin implements Store.
func (s *MemoryStore) Begin(_ context.Context, flow PendingFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := firstOtherFlow(slices.Collect(maps.Keys(s.flows)), flow.ID); ok {
		return fmt.Errorf("%w: %s", ErrFlowInProgress, id)
	}
	s.flows[flow.ID] = flow
	return nil
}

// Claim implements Store.
func (s *MemoryStore) Claim(_ context.Context, id string) (PendingFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[id]
	if !ok {
		return PendingFlow{}, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	delete(s.flows, id)
	return flow, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]PendingFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(s.flows))
	out := make([]PendingFlow, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.flows[id])
	}
	return out, nil
}

func sortFlows(flows []PendingFlow) {
	slices.SortFunc(flows, func(a, b PendingFlow) int {
		return strings.Compare(a.ID, b.ID)
	})
}

func firstOtherFlow(ids []string, self string) (string, bool) {
	slices.Sort(ids)
	for _, id := range ids {
		if id != self {
			return id, true
		}
	}
	return "", false
}
