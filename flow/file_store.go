// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/stacklok/appauth-go/logger"
)

const (
	flowFileSuffix    = ".json"
	lockFileName      = ".flows.lock"
	lockRetryInterval = 25 * time.Millisecond
	defaultLockWait   = 5 * time.Second
)

// StoreDir returns the flow directory within the given state home.
func StoreDir(stateHome string) string {
	return filepath.Join(stateHome, "appauth", "flows")
}

// DefaultStoreDir returns the flow directory under the XDG state home.
func DefaultStoreDir() string {
	return StoreDir(xdg.StateHome)
}

// FileStore persists pending flows as JSON files, one per flow. All access is
// serialized through a lock file so that another process never observes a
// partially written record or claims a flow twice.
type FileStore struct {
	dir      string
	lockWait time.Duration

	// mu serializes goroutines in this process; lock serializes processes.
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create flow directory %s: %w", dir, err)
	}
	return &FileStore{
		dir:      dir,
		lock:     flock.New(filepath.Join(dir, lockFileName)),
		lockWait: defaultLockWait,
	}, nil
}

// NewDefaultFileStore returns a store in DefaultStoreDir.
func NewDefaultFileStore() (*FileStore, error) {
	return NewFileStore(DefaultStoreDir())
}

// Save implements Store. The record is written to a temporary file and renamed
// into place.
func (s *FileStore) Save(ctx context.Context, flow PendingFlow) error {
	path, err := s.flowPath(flow.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to encode flow %s: %w", flow.ID, err)
	}

	return s.withLock(ctx, func() error {
		return s.writeLocked(flow.ID, path, data)
	})
}

// Begin implements Store. The lock is held across the check and the write, so
// processes sharing the directory cannot both start a flow.
func (s *FileStore) Begin(ctx context.Context, flow PendingFlow) error {
	path, err := s.flowPath(flow.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to encode flow %s: %w", flow.ID, err)
	}

	return s.withLock(ctx, func() error {
		flows, err := s.readAllLocked()
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(flows))
		for _, f := range flows {
			ids = append(ids, f.ID)
		}
		if id, ok := firstOtherFlow(ids, flow.ID); ok {
			return fmt.Errorf("%w: %s", ErrFlowInProgress, id)
		}
		return s.writeLocked(flow.ID, path, data)
	})
}

func (s *FileStore) writeLocked(id, path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary flow file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write flow %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write flow %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store flow %s: %w", id, err)
	}
	logger.Debugw("stored pending flow", "flow", id, "path", path)
	return nil
}

// Claim implements Store.
func (s *FileStore) Claim(ctx context.Context, id string) (PendingFlow, error) {
	path, err := s.flowPath(id)
	if err != nil {
		return PendingFlow{}, err
	}

	var flow PendingFlow
	err = s.withLock(ctx, func() error {
		data, err := os.ReadFile(path) // #nosec G304 -- path is built from a validated UUID
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFlowNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to read flow %s: %w", id, err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove flow %s: %w", id, err)
		}
		if err := json.Unmarshal(data, &flow); err != nil {
			return fmt.Errorf("failed to decode flow %s: %w", id, err)
		}
		return nil
	})
	return flow, err
}

// List implements Store. Unreadable records are skipped.
func (s *FileStore) List(ctx context.Context) ([]PendingFlow, error) {
	var flows []PendingFlow
	err := s.withLock(ctx, func() error {
		var err error
		flows, err = s.readAllLocked()
		return err
	})
	if err != nil {
		return nil, err
	}
	sortFlows(flows)
	return flows, nil
}

// readAllLocked reads every well-formed record. The caller holds the lock.
func (s *FileStore) readAllLocked() ([]PendingFlow, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	var flows []PendingFlow
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, flowFileSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name)) // #nosec G304 -- name comes from the store directory
		if err != nil {
			logger.Warnw("skipping unreadable flow record", "file", name, "error", err)
			continue
		}
		var flow PendingFlow
		if err := json.Unmarshal(data, &flow); err != nil {
			logger.Warnw("skipping malformed flow record", "file", name, "error", err)
			continue
		}
		flows = append(flows, flow)
	}
	return flows, nil
}

func (s *FileStore) flowPath(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid flow ID %q", ErrFlowNotFound, id)
	}
	return filepath.Join(s.dir, id+flowFileSuffix), nil
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("failed to acquire flow store lock: %w", err)
	}
	if !locked {
		return errors.New("failed to acquire flow store lock")
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logger.Warnf("failed to unlock %s: %v", s.lock.Path(), err)
		}
	}()
	return fn()
}
